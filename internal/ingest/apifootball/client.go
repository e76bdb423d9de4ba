package apifootball

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/fortuna/btts/internal/model"
)

const (
	BaseURL      = "https://v3.football.api-sports.io"
	apiKeyHeader = "x-apisports-key"
)

// ErrUnavailable wraps transport failures, timeouts, non-2xx responses and
// undecodable bodies. Callers treat it as "no data".
var ErrUnavailable = errors.New("api-football unavailable")

// APIError is returned when the API answers 200 with a non-empty errors
// field (bad key, quota exhausted, bad parameters).
type APIError struct {
	Endpoint string
	Errors   map[string]string
}

func (e *APIError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for k, v := range e.Errors {
		parts = append(parts, k+": "+v)
	}
	return fmt.Sprintf("api-football %s: %s", e.Endpoint, strings.Join(parts, "; "))
}

// Config configures the client.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	CallDelay time.Duration // fixed pause between consecutive calls
	UserAgent string
}

// Client talks to API-Football v3. Calls are spaced by CallDelay and are
// never retried.
type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	userAgent string
	delay     time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	lastCall time.Time
	calls    int
}

// New creates an API-Football client.
func New(cfg Config, logger *slog.Logger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "btts/1.0"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		userAgent: userAgent,
		delay:     cfg.CallDelay,
		logger:    logger.With("component", "apifootball"),
	}
}

// Calls returns the number of upstream requests issued so far.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// FixturesByDate fetches every fixture on a UTC calendar date.
func (c *Client) FixturesByDate(ctx context.Context, date time.Time) ([]model.Fixture, error) {
	params := url.Values{}
	params.Set("date", date.UTC().Format("2006-01-02"))

	body, err := c.get(ctx, "fixtures", params)
	if err != nil {
		return nil, err
	}
	fixtures, err := ParseFixtures(body)
	if err != nil {
		return nil, fmt.Errorf("%w: fixtures: %v", ErrUnavailable, err)
	}

	c.logger.Info("fixtures fetched", "date", params.Get("date"), "count", len(fixtures))
	return fixtures, nil
}

// TeamStatistics fetches a team's season aggregates in a competition. It
// returns nil, nil when the API has no data for the combination.
func (c *Client) TeamStatistics(ctx context.Context, teamID, competitionID, season int) (*model.TeamSeasonStats, error) {
	params := url.Values{}
	params.Set("team", strconv.Itoa(teamID))
	params.Set("league", strconv.Itoa(competitionID))
	params.Set("season", strconv.Itoa(season))

	body, err := c.get(ctx, "teams/statistics", params)
	if err != nil {
		return nil, err
	}
	stats, err := ParseTeamStatistics(body)
	if err != nil {
		return nil, fmt.Errorf("%w: teams/statistics: %v", ErrUnavailable, err)
	}
	if stats == nil {
		c.logger.Debug("no statistics", "team", teamID, "league", competitionID, "season", season)
		return nil, nil
	}

	stats.TeamID = teamID
	stats.CompetitionID = competitionID
	stats.Season = season
	return stats, nil
}

// get issues one GET request after waiting out the call delay.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("request", "endpoint", endpoint, "params", params.Encode())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: read body: %v", ErrUnavailable, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: status %d: %s", ErrUnavailable, endpoint, resp.StatusCode, snippet(body))
	}

	if apiErrs, err := ParseErrors(body); err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUnavailable, endpoint, err)
	} else if len(apiErrs) > 0 {
		return nil, &APIError{Endpoint: endpoint, Errors: apiErrs}
	}

	return body, nil
}

// wait blocks until CallDelay has passed since the previous call.
func (c *Client) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	var pause time.Duration
	if !c.lastCall.IsZero() && c.delay > 0 {
		pause = c.delay - time.Since(c.lastCall)
	}
	c.mu.Unlock()

	if pause > 0 {
		timer := time.NewTimer(pause)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	c.mu.Lock()
	c.lastCall = time.Now()
	c.calls++
	c.mu.Unlock()
	return nil
}

// readBody decodes the body according to Content-Encoding. Setting
// Accept-Encoding by hand turns off the transport's transparent gzip.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	return io.ReadAll(reader)
}

func snippet(body []byte) string {
	return string(body[:min(len(body), 200)])
}
