package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chessconnect/api/internal/metrics"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL   = "https://api.chess.com/pub/player"
	DefaultUserAgent = "chessconnect (contact@chessconnect.dev)"
)

// ErrNotFound is returned for every failed lookup: unknown player, non-200
// status, timeout or undecodable body. Callers only learn that the data is absent.
var ErrNotFound = errors.New("chess.com player not found or unreachable")

// Profile is the subset of the public player document the service relies on.
// PublicField is the free-text location, which players can edit themselves.
type Profile struct {
	Username    string
	PublicField string
}

// Stats are the normalized ratings of a player; modes never played are 0.
type Stats struct {
	Blitz  int
	Bullet int
	Rapid  int
	Puzzle int
}

type profileResponse struct {
	Username string `json:"username"`
	Location string `json:"location"`
}

type ratingSnapshot struct {
	Rating int `json:"rating"`
}

type modeStats struct {
	Last    *ratingSnapshot `json:"last"`
	Highest *ratingSnapshot `json:"highest"`
}

type statsResponse struct {
	Blitz   *modeStats `json:"chess_blitz"`
	Bullet  *modeStats `json:"chess_bullet"`
	Rapid   *modeStats `json:"chess_rapid"`
	Tactics *modeStats `json:"tactics"`
}

// Client reads player profiles and stats from the Chess.com public API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client; empty values fall back to the public API defaults.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchProfile returns the live public profile of username.
func (c *Client) FetchProfile(ctx context.Context, username string) (Profile, error) {
	var body profileResponse
	if err := c.get(ctx, "profile", "/"+url.PathEscape(username), &body); err != nil {
		return Profile{}, err
	}
	return Profile{Username: body.Username, PublicField: body.Location}, nil
}

// FetchStats returns the current ratings of username.
func (c *Client) FetchStats(ctx context.Context, username string) (Stats, error) {
	var body statsResponse
	if err := c.get(ctx, "stats", "/"+url.PathEscape(username)+"/stats", &body); err != nil {
		return Stats{}, err
	}
	return Stats{
		Blitz:  lastRating(body.Blitz),
		Bullet: lastRating(body.Bullet),
		Rapid:  lastRating(body.Rapid),
		Puzzle: highestRating(body.Tactics),
	}, nil
}

func lastRating(m *modeStats) int {
	if m == nil || m.Last == nil || m.Last.Rating < 0 {
		return 0
	}
	return m.Last.Rating
}

func highestRating(m *modeStats) int {
	if m == nil || m.Highest == nil || m.Highest.Rating < 0 {
		return 0
	}
	return m.Highest.Rating
}

func (c *Client) get(ctx context.Context, endpoint, path string, out any) error {
	err := c.doGet(ctx, path, out)
	metrics.ObserveUpstreamCall(endpoint, err == nil)
	if err != nil {
		c.logger.Warn("chess.com request failed",
			zap.String("endpoint", endpoint),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
