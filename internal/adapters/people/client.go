// Package people resolves player names to MLBAM ids via the MLB Stats API.
package people

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/okian/pitchdash/internal/adapters/fetch"
	"github.com/okian/pitchdash/internal/domain/roster"
)

// ErrPlayerNotFound is returned when the search yields no one.
var ErrPlayerNotFound = errors.New("player not found")

const searchPath = "/api/v1/people/search"

type person struct {
	ID        int    `json:"id"`
	FullName  string `json:"fullName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	UseName   string `json:"useName"`
}

type searchResponse struct {
	People []person `json:"people"`
}

// Client looks players up by name.
type Client struct {
	baseURL string
	http    *fetch.Client
}

// NewClient creates a client for baseURL, e.g. "https://statsapi.mlb.com".
func NewClient(baseURL string, opts ...fetch.Option) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    fetch.New("people", opts...),
	}
}

// Lookup returns the MLBAM id for the player. An exact name match wins, then a
// match ignoring case and accents; otherwise the first search result is used.
func (c *Client) Lookup(ctx context.Context, last, first string) (int, error) {
	last, first = strings.TrimSpace(last), strings.TrimSpace(first)
	if last == "" {
		return 0, fmt.Errorf("%w: empty last name", ErrPlayerNotFound)
	}
	full := strings.TrimSpace(first + " " + last)

	q := url.Values{}
	q.Set("names", full)
	body, err := c.http.Get(ctx, c.baseURL+searchPath+"?"+q.Encode())
	if err != nil {
		return 0, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: people search: %v", fetch.ErrUpstream, err)
	}
	if p, ok := best(resp.People, last, first); ok {
		return p.ID, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrPlayerNotFound, full)
}

func best(candidates []person, last, first string) (person, bool) {
	full := strings.TrimSpace(first + " " + last)
	wantFull := roster.Fold(full)
	wantLast, wantFirst := roster.Fold(last), roster.Fold(first)

	matchers := []func(person) bool{
		func(p person) bool { return p.FullName == full },
		func(p person) bool { return roster.Fold(p.FullName) == wantFull },
		func(p person) bool {
			return roster.Fold(p.LastName) == wantLast &&
				(wantFirst == "" || roster.Fold(p.FirstName) == wantFirst || roster.Fold(p.UseName) == wantFirst)
		},
		func(person) bool { return true },
	}
	for _, match := range matchers {
		for _, p := range candidates {
			if p.ID > 0 && match(p) {
				return p, true
			}
		}
	}
	return person{}, false
}
