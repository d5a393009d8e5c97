package apiclient

import (
	"context"
	"net/http"

	"legalaid-admin/internal/domain"
)

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login establishes the cookie session used by every subsequent call.
func (c *Client) Login(ctx context.Context, email, password string) (domain.User, error) {
	return request[domain.User](ctx, c, http.MethodPost, "/auth/login", LoginInput{Email: email, Password: password})
}

// Me returns the authenticated account for the current session cookie.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	return request[domain.User](ctx, c, http.MethodGet, "/auth/me", nil)
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil)
	return err
}
