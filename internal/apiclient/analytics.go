package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// AnalyticsSummary is the aggregate snapshot behind the dashboard.
type AnalyticsSummary struct {
	TotalQueries  int            `json:"totalQueries"`
	OpenQueries   int            `json:"openQueries"`
	ClosedQueries int            `json:"closedQueries"`
	TotalUsers    int            `json:"totalUsers"`
	ByStatus      map[string]int `json:"byStatus"`
	ByCategory    map[string]int `json:"byCategory"`
	ByUrgency     map[string]int `json:"byUrgency"`
}

func (c *Client) Analytics(ctx context.Context, timeRange string) (AnalyticsSummary, error) {
	path := "/analytics"
	if timeRange != "" {
		path += "?range=" + url.QueryEscape(timeRange)
	}
	return request[AnalyticsSummary](ctx, c, http.MethodGet, path, nil)
}
