package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/merchbay/storefront/internal/domain/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  session.Session `json:"user"`
	Token string          `json:"token"`
}

// Login exchanges credentials for a session. The returned session carries
// the bearer token; installing it on the client is the caller's decision
// (the synchronizer does it as part of its login transition).
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return session.Session{}, fmt.Errorf("login: %w", err)
	}
	sess := resp.User
	sess.Token = resp.Token
	return sess, nil
}

// Register creates an account and returns the resulting session.
func (c *Client) Register(ctx context.Context, name, email, password string) (session.Session, error) {
	req := registerRequest{Name: name, Email: email, Password: password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &resp); err != nil {
		return session.Session{}, fmt.Errorf("register: %w", err)
	}
	sess := resp.User
	sess.Token = resp.Token
	return sess, nil
}

// Profile validates the installed token against the backend and returns the
// confirmed user. A 401/403 means the token is invalid or expired.
func (c *Client) Profile(ctx context.Context) (session.Session, error) {
	var sess session.Session
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &sess); err != nil {
		return session.Session{}, fmt.Errorf("fetch profile: %w", err)
	}
	return sess, nil
}
