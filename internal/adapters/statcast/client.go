// Package statcast fetches and decodes pitch-level Statcast search results.
package statcast

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/pitchdash/internal/adapters/fetch"
	"github.com/okian/pitchdash/internal/domain/model"
)

const searchPath = "/statcast_search/csv"

// Client queries the Baseball Savant search endpoint.
type Client struct {
	baseURL string
	http    *fetch.Client
}

// NewClient creates a client for baseURL, e.g. "https://baseballsavant.mlb.com".
func NewClient(baseURL string, opts ...fetch.Option) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    fetch.New("statcast", opts...),
	}
}

// Fetch downloads every pitch thrown by (or to) the player in the date range
// as raw CSV.
func (c *Client) Fetch(ctx context.Context, playerID int, pt model.PlayerType, r model.DateRange) ([]byte, error) {
	if playerID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayer, playerID)
	}
	return c.http.Get(ctx, c.SearchURL(playerID, pt, r))
}

// SearchURL builds the CSV search URL.
func (c *Client) SearchURL(playerID int, pt model.PlayerType, r model.DateRange) string {
	lookup := "pitchers_lookup[]"
	if pt == model.Batter {
		lookup = "batters_lookup[]"
	}
	q := url.Values{}
	q.Set("all", "true")
	q.Set("type", "details")
	q.Set("player_type", string(pt))
	q.Set(lookup, strconv.Itoa(playerID))
	q.Set("game_date_gt", r.StartString())
	q.Set("game_date_lt", r.EndString())
	return c.baseURL + searchPath + "?" + q.Encode()
}
