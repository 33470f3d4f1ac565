// Package alerts lists and acknowledges credit monitoring alerts through an
// authenticated client.
//
// Alert calls are customer-scoped: when the embedding application has
// configured a secondary tenant token, it is attached so a single session
// can read alerts for a specific downstream business customer.
package alerts

import (
	"context"

	scorewire "github.com/scorewire/scorewire-go"
)

// Alert is a single monitoring alert.
type Alert struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
	Read      bool   `json:"read"`
}

// Client issues alert operations through the core request pipeline.
type Client struct {
	core *scorewire.Client
}

// New creates an alert client over the given core client.
func New(core *scorewire.Client) *Client {
	return &Client{core: core}
}

// List returns the alerts for the authenticated principal.
func (c *Client) List(ctx context.Context) ([]Alert, error) {
	var out struct {
		Alerts []Alert `json:"alerts"`
	}
	if err := c.core.Get(ctx, "/alerts", &out, scorewire.WithCustomerScope()); err != nil {
		return nil, err
	}
	return out.Alerts, nil
}

// MarkRead acknowledges a single alert.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	body := map[string]bool{"read": true}
	return c.core.Post(ctx, "/alerts/"+id+"/read", body, nil, scorewire.WithCustomerScope())
}
