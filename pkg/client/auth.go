package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/naveenspark/protasker/pkg/domain"
)

// LoginRequest is the payload for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the payload for POST /users/register.
type RegisterRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// AuthResponse is what both auth endpoints return on success.
type AuthResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// errMissingToken means a 2xx auth response came back without a token.
var errMissingToken = errors.New("response carried no token")

// Login exchanges credentials for a user record and bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.post(ctx, pathLogin, req, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("client.Login: %w", &TransportError{Op: "decode response", Err: errMissingToken})
	}
	return &resp, nil
}

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.post(ctx, pathRegister, req, &resp); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("client.Register: %w", &TransportError{Op: "decode response", Err: errMissingToken})
	}
	return &resp, nil
}
