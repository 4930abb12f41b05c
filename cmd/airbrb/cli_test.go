package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/airbrb/booking-client/internal/adapter/api/apitest"
	"github.com/airbrb/booking-client/internal/adapter/storage"
	"github.com/airbrb/booking-client/internal/config"
	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/airbrb/booking-client/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hostEmail  = "host@airbrb.test"
	guestEmail = "guest@airbrb.test"
)

type cli struct {
	t        *testing.T
	stateDir string
}

// newCLI points the CLI at backend with its own state directory.
func newCLI(t *testing.T, backend *apitest.Backend) *cli {
	t.Chdir(t.TempDir())
	t.Setenv("BACKEND_URL", backend.URL())
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("LOG_LEVEL", "error")
	return &cli{t: t, stateDir: t.TempDir()}
}

// as switches to another user's state directory.
func (c *cli) as(dir string) *cli {
	return &cli{t: c.t, stateDir: dir}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Setenv("STATE_DIR", c.stateDir)
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, out)
	return out
}

func lastField(s string) string {
	f := strings.Fields(s)
	return f[len(f)-1]
}

func TestCLI_LoginWhoamiLogout(t *testing.T) {
	backend := apitest.New(t)
	backend.AddUser(guestEmail, "pw", "Guesty")
	c := newCLI(t, backend)

	_, err := c.run("", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	out := c.mustRun("login", guestEmail, "-p", "pw")
	assert.Contains(t, out, "Logged in as Guesty")

	out = c.mustRun("whoami")
	assert.Equal(t, "Guesty <"+guestEmail+">\n", out)

	c.mustRun("logout")
	_, err = c.run("", "whoami")
	assert.Error(t, err)
}

func TestCLI_LoginPromptsForPassword(t *testing.T) {
	backend := apitest.New(t)
	backend.AddUser(guestEmail, "secret", "")
	c := newCLI(t, backend)

	out, err := c.run("secret\n", "login", guestEmail)
	require.NoError(t, err)
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "Logged in as "+guestEmail)
}

func TestCLI_RegisterPasswordMismatch(t *testing.T) {
	backend := apitest.New(t)
	c := newCLI(t, backend)

	_, err := c.run("one\ntwo\n", "register", guestEmail, "--name", "Guesty")
	require.Error(t, err)
	assert.Equal(t, usecase.MsgPasswordsMismatch, err.Error())
	assert.Zero(t, backend.Calls("POST /user/auth/register"))
}

func TestCLI_HostAndGuestFlow(t *testing.T) {
	backend := apitest.New(t)
	backend.AddUser(hostEmail, "host-pw", "Hosty")
	backend.AddUser(guestEmail, "guest-pw", "Guesty")
	host := newCLI(t, backend)
	guest := host.as(t.TempDir())

	host.mustRun("login", hostEmail, "-p", "host-pw")
	guest.mustRun("login", guestEmail, "-p", "guest-pw")

	_, err := host.run("", "listings", "create", "--price", "100")
	require.Error(t, err)
	assert.Equal(t, "Please enter a title.", err.Error())

	listingID := lastField(host.mustRun("listings", "create",
		"--title", "Beach House", "--price", "150", "--city", "Sydney",
		"--type", "House", "--bedrooms", "2", "--amenity", "wifi", "--amenity", "pool"))

	_, err = host.run("", "listings", "publish", listingID)
	require.Error(t, err)
	assert.Equal(t, usecase.MsgPublishNeedsRange, err.Error())

	_, err = host.run("", "listings", "publish", listingID, "--range", "2025-12-20..2025-12-01")
	require.Error(t, err)
	assert.Equal(t, usecase.MsgRangeEndBeforeFrom, err.Error())

	host.mustRun("listings", "publish", listingID, "--range", "2025-12-01..2025-12-20")

	out := guest.mustRun("listings", "list")
	assert.Contains(t, out, "Beach House")
	assert.Contains(t, out, "published")

	out = guest.mustRun("listings", "show", listingID)
	assert.Contains(t, out, "Available 2025-12-01 to 2025-12-20")
	assert.Contains(t, out, "Amenities: wifi, pool")
	assert.Contains(t, out, "Rating: no reviews")

	_, err = guest.run("", "bookings", "request", listingID, "--from", "2025-12-18", "--to", "2025-12-22")
	require.Error(t, err)
	assert.Equal(t, usecase.MsgOutsideAvailable, err.Error())

	out = guest.mustRun("bookings", "request", listingID, "--from", "2025-12-10", "--to", "2025-12-13")
	assert.Contains(t, out, "3 night(s), total 450.00")

	_, err = guest.run("", "bookings", "host", listingID)
	require.Error(t, err)
	assert.Equal(t, usecase.MsgOwnerOnly, err.Error())

	out = host.mustRun("bookings", "host", listingID)
	assert.Contains(t, out, guestEmail)
	assert.Contains(t, out, "pending")

	bookings, err := guest.run("", "bookings", "list", "--listing", listingID)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(bookings), "\n")
	require.Len(t, lines, 2)
	bookingID := strings.Fields(lines[1])[0]

	host.mustRun("bookings", "accept", bookingID)
	stored, ok := backend.Booking(bookingID)
	require.True(t, ok)
	assert.Equal(t, "accepted", stored.Status)

	out = guest.mustRun("reviews", "eligible", listingID)
	assert.Contains(t, out, bookingID)

	_, err = guest.run("", "reviews", "submit", listingID, "--booking", bookingID, "--rating", "7", "-m", "Great")
	require.Error(t, err)
	assert.Equal(t, usecase.MsgRatingRange, err.Error())

	guest.mustRun("reviews", "submit", listingID, "--booking", bookingID, "--rating", "4", "-m", "Great stay")
	_, err = guest.run("", "reviews", "submit", listingID, "--booking", bookingID, "--rating", "5", "-m", "Again")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReviewAlreadyExists)

	out = guest.mustRun("listings", "show", listingID)
	assert.Contains(t, out, "Rating: 4.0 (1)")

	host.mustRun("listings", "unpublish", listingID)
	assert.Contains(t, guest.mustRun("listings", "list"), "No listings.")
}

func TestCLI_Notifications(t *testing.T) {
	backend := apitest.New(t)
	backend.AddUser(guestEmail, "pw", "Guesty")
	c := newCLI(t, backend)
	c.mustRun("login", guestEmail, "-p", "pw")

	store, err := storage.NewSQLiteStore(context.Background(), filepath.Join(c.stateDir, storage.StateDBFile))
	require.NoError(t, err)
	seed, err := json.Marshal([]domain.Notification{
		{ID: "n2", Type: domain.NotificationGuest, Message: usecase.MsgBookingAccepted, Detail: "Your booking was accepted.", CreatedAt: time.Now()},
		{ID: "n1", Type: domain.NotificationGuest, Message: usecase.MsgBookingDeclined, Detail: "Your booking was declined.", CreatedAt: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), usecase.NotificationsKey(guestEmail), seed))
	require.NoError(t, store.Close())

	out := c.mustRun("notifications", "list")
	assert.Contains(t, out, "2 unread")
	assert.Less(t, strings.Index(out, "n2"), strings.Index(out, "n1"))

	c.mustRun("notifications", "read", "n2")
	assert.Contains(t, c.mustRun("notifications", "list"), "1 unread")

	_, err = c.run("", "notifications", "dismiss", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c.mustRun("notifications", "dismiss", "n1")
	c.mustRun("notifications", "read")
	out = c.mustRun("notifications", "list")
	assert.Contains(t, out, "0 unread")
	assert.NotContains(t, out, "n1")

	c.mustRun("notifications", "clear")
	assert.Contains(t, c.mustRun("notifications", "list"), "No notifications.")
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("2025-12-01..2025-12-20")
	require.NoError(t, err)
	assert.Equal(t, 2025, r.Start.Year())
	assert.Equal(t, 20, r.End.Day())

	_, err = parseRange("2025-12-01")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = parseRange("soon..later")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBuildSinks(t *testing.T) {
	a := &app{cfg: &config.Config{}, log: logger.NewNop()}
	assert.Empty(t, buildSinks(a, a.log))

	a.cfg.SMTP = config.SMTPConfig{Host: "smtp.airbrb.test", Port: 587, SenderEmail: "noreply@airbrb.test"}
	sinks := buildSinks(a, a.log)
	require.Len(t, sinks, 1)
	assert.Equal(t, "smtp", sinks[0].Name())
}

func TestRenderTable(t *testing.T) {
	var out bytes.Buffer
	renderTable(&out, []string{"ID", "TITLE"}, [][]string{{"101", "Beach House"}, {"102", "Cabin"}})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "TITLE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"101", "Beach", "House"}, strings.Fields(lines[1]))
	assert.Equal(t, strings.Index(lines[0], "TITLE"), strings.Index(lines[2], "Cabin"), "columns are aligned")
}
