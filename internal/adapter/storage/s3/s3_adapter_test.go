package s3

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := objectKey("/home/me/Photos/Beach.JPG")
	require.True(t, strings.HasPrefix(key, KeyPrefix))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	id := strings.TrimSuffix(strings.TrimPrefix(key, KeyPrefix), ".jpg")
	_, err := uuid.Parse(id)
	assert.NoError(t, err)

	assert.NotEqual(t, objectKey("a.png"), objectKey("a.png"))
	assert.False(t, strings.Contains(objectKey("noext"), "."))
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/airbrb-media/listings/x.png", objectURL("http://localhost:9000/", "airbrb-media", "listings/x.png"))
}
