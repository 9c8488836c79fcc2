package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/game"
	"github.com/pefman/void-duel/internal/match"
	"github.com/pefman/void-duel/internal/models"
	"github.com/pefman/void-duel/internal/stats"
	"github.com/pefman/void-duel/internal/weapons"
)

var httpClient = &http.Client{Timeout: 8 * time.Second}

// catalogTTL bounds how long the weapon catalog is reused between calls.
const catalogTTL = 5 * time.Minute

// Config holds API configuration
type Config struct {
	BaseURL string
}

// Client talks to a void-duel server.
type Client struct {
	config Config
	http   *http.Client

	cacheMu     sync.RWMutex
	catalog     *models.Catalog
	catalogTime time.Time
}

func NewClient(baseURL string) *Client {
	return &Client{
		config: Config{BaseURL: baseURL},
		http:   httpClient,
	}
}

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	u := strings.TrimRight(c.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e models.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &Error{Status: resp.StatusCode, Message: e.Message}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) apiGet(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) apiPost(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func matchPath(id string, rest ...string) string {
	p := "/api/matches/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func (c *Client) Version(ctx context.Context) (models.Version, error) {
	var v models.Version
	err := c.apiGet(ctx, "/version", &v)
	return v, err
}

// Catalog returns the stock weapons and hulls, cached for a few minutes.
func (c *Client) Catalog(ctx context.Context) (models.Catalog, error) {
	c.cacheMu.RLock()
	if c.catalog != nil && time.Since(c.catalogTime) < catalogTTL {
		cat := *c.catalog
		c.cacheMu.RUnlock()
		return cat, nil
	}
	c.cacheMu.RUnlock()

	var cat models.Catalog
	if err := c.apiGet(ctx, "/api/catalog", &cat); err != nil {
		return models.Catalog{}, err
	}
	c.cacheMu.Lock()
	c.catalog = &cat
	c.catalogTime = time.Now()
	c.cacheMu.Unlock()
	return cat, nil
}

func (c *Client) NewMatch(ctx context.Context, req models.NewMatchRequest) (match.Snapshot, error) {
	var s match.Snapshot
	err := c.apiPost(ctx, "/api/matches", req, &s)
	return s, err
}

func (c *Client) Match(ctx context.Context, id string) (match.Snapshot, error) {
	var s match.Snapshot
	err := c.apiGet(ctx, matchPath(id), &s)
	return s, err
}

func (c *Client) DeleteMatch(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, matchPath(id), nil, nil)
}

// Log returns the events of a match newer than since.
func (c *Client) Log(ctx context.Context, id string, since int) ([]match.Event, error) {
	var ev []match.Event
	err := c.apiGet(ctx, matchPath(id, "log")+"?since="+strconv.Itoa(since), &ev)
	return ev, err
}

func (c *Client) action(ctx context.Context, id, verb string, body any) (models.ActionResponse, error) {
	var r models.ActionResponse
	err := c.apiPost(ctx, matchPath(id, verb), body, &r)
	return r, err
}

func (c *Client) Select(ctx context.Context, id, unit string) (models.ActionResponse, error) {
	return c.action(ctx, id, "select", models.SelectRequest{Unit: unit})
}

func (c *Client) Move(ctx context.Context, id string, to engine.Cell) (models.ActionResponse, error) {
	return c.action(ctx, id, "move", models.MoveRequest{X: to.X, Y: to.Y})
}

func (c *Client) SelectWeapon(ctx context.Context, id string, t weapons.Type) (models.ActionResponse, error) {
	return c.action(ctx, id, "weapon", models.WeaponRequest{Weapon: t.String()})
}

func (c *Client) Fire(ctx context.Context, id, target string) (models.ActionResponse, error) {
	return c.action(ctx, id, "fire", models.FireRequest{Target: target})
}

func (c *Client) Advance(ctx context.Context, id string) (models.ActionResponse, error) {
	return c.action(ctx, id, "advance", nil)
}

func (c *Client) Customize(ctx context.Context, id string, cfg game.CustomizationConfig) (models.ActionResponse, error) {
	return c.action(ctx, id, "customize", cfg)
}

func (c *Client) DailyLeaderboard(ctx context.Context) (models.DailyLeaderboard, error) {
	var d models.DailyLeaderboard
	err := c.apiGet(ctx, "/leaderboard/daily", &d)
	return d, err
}

func (c *Client) Results(ctx context.Context, limit int) ([]stats.MatchRecord, error) {
	var out []stats.MatchRecord
	err := c.apiGet(ctx, "/api/results?limit="+strconv.Itoa(limit), &out)
	return out, err
}
