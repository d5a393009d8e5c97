package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"legalaid-admin/internal/domain"
)

type CreateUserInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	return request[[]domain.User](ctx, c, http.MethodGet, "/user", nil)
}

func (c *Client) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	return request[domain.User](ctx, c, http.MethodPost, "/user", in)
}

func (c *Client) UpdateUser(ctx context.Context, id string, u domain.User) (domain.User, error) {
	return request[domain.User](ctx, c, http.MethodPut, "/user/"+url.PathEscape(id), u)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/user/"+url.PathEscape(id), nil)
	return err
}
