package api

import (
	"context"
	"net/http"
)

// AuthResult is the body of a successful login or registration.
type AuthResult struct {
	Token string
	Name  string
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out authResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/user/auth/login",
		endpoint: "POST /user/auth/login",
		body:     credentialsRequest{Email: email, Password: password},
	}, &out)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: out.Token, Name: out.Name}, nil
}

// Register creates an account and returns its bearer token.
func (c *Client) Register(ctx context.Context, email, password, name string) (AuthResult, error) {
	var out authResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/user/auth/register",
		endpoint: "POST /user/auth/register",
		body:     credentialsRequest{Email: email, Password: password, Name: name},
	}, &out)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: out.Token, Name: out.Name}, nil
}

// Logout invalidates token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/user/auth/logout",
		endpoint: "POST /user/auth/logout",
		token:    token,
	}, nil)
}
