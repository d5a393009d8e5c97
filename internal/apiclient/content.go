package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Resource is a typed client for one of the content CRUD endpoints. All the
// content sections share the same list/create/update/delete surface.
type Resource[T any] struct {
	c    *Client
	path string
}

func NewResource[T any](c *Client, path string) Resource[T] {
	return Resource[T]{c: c, path: path}
}

func (r Resource[T]) List(ctx context.Context) ([]T, error) {
	return request[[]T](ctx, r.c, http.MethodGet, r.path, nil)
}

func (r Resource[T]) Create(ctx context.Context, item T) (T, error) {
	return request[T](ctx, r.c, http.MethodPost, r.path, item)
}

func (r Resource[T]) Update(ctx context.Context, id string, item T) (T, error) {
	return request[T](ctx, r.c, http.MethodPut, r.path+"/"+url.PathEscape(id), item)
}

func (r Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.c.do(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil)
	return err
}

type Article struct {
	ID        string    `json:"_id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type FAQ struct {
	ID       string `json:"_id,omitempty"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Order    int    `json:"order"`
}

type Page struct {
	ID      string `json:"_id,omitempty"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
}

type HomeSection struct {
	ID       string `json:"_id,omitempty"`
	Heading  string `json:"heading"`
	Subtext  string `json:"subtext"`
	ImageURL string `json:"imageUrl"`
}

type AssistanceEntry struct {
	ID          string `json:"_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
}

type ContactInfo struct {
	ID      string `json:"_id,omitempty"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type SocialLink struct {
	ID       string `json:"_id,omitempty"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type AboutSection struct {
	ID      string `json:"_id,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (c *Client) Articles() Resource[Article] { return NewResource[Article](c, "/articles") }
func (c *Client) FAQs() Resource[FAQ]         { return NewResource[FAQ](c, "/faqs") }
func (c *Client) Pages() Resource[Page]       { return NewResource[Page](c, "/pages") }
func (c *Client) Home() Resource[HomeSection] { return NewResource[HomeSection](c, "/home") }
func (c *Client) Assistance() Resource[AssistanceEntry] {
	return NewResource[AssistanceEntry](c, "/assistance")
}
func (c *Client) ContactUs() Resource[ContactInfo]  { return NewResource[ContactInfo](c, "/contactus") }
func (c *Client) SocialLinks() Resource[SocialLink] { return NewResource[SocialLink](c, "/links") }
func (c *Client) Abouts() Resource[AboutSection]    { return NewResource[AboutSection](c, "/abouts") }
