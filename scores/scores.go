// Package scores fetches server-computed credit score data through an
// authenticated client. The SDK never computes scores; it only retrieves
// what the server reports.
package scores

import (
	"context"
	"strconv"

	scorewire "github.com/scorewire/scorewire-go"
)

// Score is a point-in-time credit score as reported by the server.
type Score struct {
	Value       int    `json:"value"`
	Band        string `json:"band"`
	Provider    string `json:"provider"`
	RecordedAt  string `json:"recordedAt"`
	MaxPossible int    `json:"maxPossible"`
}

// History is a series of historical scores.
type History struct {
	Scores []Score `json:"scores"`
}

// Client issues score queries through the core request pipeline.
type Client struct {
	core *scorewire.Client
}

// New creates a score client over the given core client.
func New(core *scorewire.Client) *Client {
	return &Client{core: core}
}

// Current returns the latest score for the authenticated principal.
func (c *Client) Current(ctx context.Context) (*Score, error) {
	var score Score
	if err := c.core.Get(ctx, "/scores/current", &score); err != nil {
		return nil, err
	}
	return &score, nil
}

// History returns up to the given number of months of historical scores.
func (c *Client) History(ctx context.Context, months int) (*History, error) {
	var history History
	err := c.core.Get(ctx, "/scores/history", &history,
		scorewire.WithQuery("months", strconv.Itoa(months)))
	if err != nil {
		return nil, err
	}
	return &history, nil
}
