package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"legalaid-admin/internal/domain"
)

// UpdateQueryInput is a partial update for a query. Nil fields are omitted.
type UpdateQueryInput struct {
	Status  *domain.QueryStatus `json:"status,omitempty"`
	Subject *string             `json:"subject,omitempty"`
	Answer  *string             `json:"answer,omitempty"`
}

func (c *Client) ListQueries(ctx context.Context) ([]domain.Query, error) {
	return request[[]domain.Query](ctx, c, http.MethodGet, "/queries", nil)
}

// CreateQuery submits a new support request on behalf of a client.
func (c *Client) CreateQuery(ctx context.Context, q domain.Query) (domain.Query, error) {
	return request[domain.Query](ctx, c, http.MethodPost, "/queries", q)
}

func (c *Client) GetQuery(ctx context.Context, id string) (domain.Query, error) {
	return request[domain.Query](ctx, c, http.MethodGet, "/queries/"+url.PathEscape(id), nil)
}

// UpdateQuery is the query-status write path used by the status coupling
// rules.
func (c *Client) UpdateQuery(ctx context.Context, id string, in UpdateQueryInput) (domain.Query, error) {
	return request[domain.Query](ctx, c, http.MethodPut, "/queries/"+url.PathEscape(id), in)
}

func (c *Client) UpdateQueryStatus(ctx context.Context, id string, status domain.QueryStatus) (domain.Query, error) {
	return c.UpdateQuery(ctx, id, UpdateQueryInput{Status: &status})
}

// AnswerQuery records a written answer on the query record.
func (c *Client) AnswerQuery(ctx context.Context, id, answer string) (domain.Query, error) {
	return c.UpdateQuery(ctx, id, UpdateQueryInput{Answer: &answer})
}

func (c *Client) DeleteQuery(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/queries/"+url.PathEscape(id), nil)
	return err
}
