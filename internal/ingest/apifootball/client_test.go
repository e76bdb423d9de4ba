package apifootball

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/btts/internal/ingest/apifootball/apifootballtest"
	"github.com/fortuna/btts/internal/model"
)

const testKey = "test-key"

var matchDay = time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, baseURL, key string) *Client {
	t.Helper()
	return New(Config{BaseURL: baseURL, APIKey: key, Timeout: 2 * time.Second}, nil)
}

func TestFixturesByDate(t *testing.T) {
	srv := apifootballtest.New(testKey)
	defer srv.Close()

	srv.AddFixture(apifootballtest.Fixture{
		ID: 1001, Date: matchDay.Add(15 * time.Hour), Status: "NS",
		LeagueID: 39, LeagueName: "Premier League", Country: "England",
		HomeID: 40, HomeName: "Liverpool", AwayID: 49, AwayName: "Chelsea",
	})
	srv.AddFixture(apifootballtest.Fixture{
		ID: 1002, Date: matchDay.Add(13 * time.Hour), Status: "FT",
		LeagueID: 88, LeagueName: "Eredivisie", Country: "Netherlands",
		HomeID: 194, HomeName: "Ajax", AwayID: 197, AwayName: "PSV",
	})
	srv.AddFixture(apifootballtest.Fixture{
		ID: 1003, Date: matchDay.AddDate(0, 0, 1), Status: "NS",
		LeagueID: 39, HomeID: 1, AwayID: 2,
	})

	c := newTestClient(t, srv.URL, testKey)
	fixtures, err := c.FixturesByDate(context.Background(), matchDay.Add(5*time.Hour))
	require.NoError(t, err)
	require.Len(t, fixtures, 2)

	first := fixtures[0]
	assert.Equal(t, 1001, first.ID)
	assert.Equal(t, "Liverpool vs Chelsea", first.Label())
	assert.Equal(t, model.Competition{ID: 39, Name: "Premier League", Country: "England"}, first.Competition)
	assert.True(t, first.Kickoff.Equal(matchDay.Add(15*time.Hour)))
	assert.Equal(t, model.StatusNotStarted, first.Status)
	assert.Equal(t, model.StatusFinished, fixtures[1].Status)

	assert.Equal(t, []string{"/fixtures?date=2025-10-18"}, srv.Requests())
	assert.Equal(t, 1, c.Calls())
}

func TestTeamStatistics(t *testing.T) {
	srv := apifootballtest.New(testKey)
	defer srv.Close()

	srv.SetStats(40, 39, 2025, apifootballtest.Stats{
		ForHome: "2.1", ForAway: "1.7", AgainstHome: "0.9", AgainstAway: "", Form: "WWDLW",
	})

	c := newTestClient(t, srv.URL, testKey)
	ctx := context.Background()

	stats, err := c.TeamStatistics(ctx, 40, 39, 2025)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 40, stats.TeamID)
	assert.Equal(t, 39, stats.CompetitionID)
	assert.Equal(t, 2025, stats.Season)
	assert.Equal(t, model.Known(2.1), stats.GoalsForHome)
	assert.Equal(t, model.Known(1.7), stats.GoalsForAway)
	assert.Equal(t, model.Known(0.9), stats.GoalsAgainstHome)
	assert.Equal(t, model.Unavailable, stats.GoalsAgainstAway)
	assert.Equal(t, 3, stats.Form.Wins(5))

	missing, err := c.TeamStatistics(ctx, 41, 39, 2025)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Contains(t, srv.Requests(), "/teams/statistics?league=39&season=2025&team=40")
}

func TestUpstreamFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("bad key is an API error", func(t *testing.T) {
		srv := apifootballtest.New(testKey)
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, "wrong").FixturesByDate(ctx, matchDay)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "fixtures", apiErr.Endpoint)
		assert.Contains(t, apiErr.Errors, "token")
		assert.False(t, errors.Is(err, ErrUnavailable))
	})

	t.Run("quota exhausted is an API error", func(t *testing.T) {
		srv := apifootballtest.New(testKey)
		defer srv.Close()
		srv.QuotaExceeded()

		_, err := newTestClient(t, srv.URL, testKey).TeamStatistics(ctx, 40, 39, 2025)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Contains(t, apiErr.Error(), "request limit")
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		srv := apifootballtest.New(testKey)
		defer srv.Close()
		srv.FailDate("2025-10-18", http.StatusBadGateway)
		srv.FailStats(40, 39, 2025, http.StatusInternalServerError)

		c := newTestClient(t, srv.URL, testKey)
		_, err := c.FixturesByDate(ctx, matchDay)
		assert.ErrorIs(t, err, ErrUnavailable)

		_, err = c.TeamStatistics(ctx, 40, 39, 2025)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("unreachable host is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newTestClient(t, url, testKey).FixturesByDate(ctx, matchDay)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("garbage body is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, testKey).FixturesByDate(ctx, matchDay)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("timeout is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL, APIKey: testKey, Timeout: 50 * time.Millisecond}, nil)
		_, err := c.FixturesByDate(ctx, matchDay)
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestCompressedBodies(t *testing.T) {
	payload := []byte(`{"errors":[],"response":[{"fixture":{"id":7,"date":"2025-10-18T14:00:00+00:00","status":{"short":"NS"}},"league":{"id":39,"name":"Premier League"},"teams":{"home":{"id":1,"name":"A"},"away":{"id":2,"name":"B"}}}]}`)

	encoders := map[string]func([]byte) []byte{
		"gzip": func(b []byte) []byte {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			_, _ = zw.Write(b)
			_ = zw.Close()
			return buf.Bytes()
		},
		"br": func(b []byte) []byte {
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			_, _ = bw.Write(b)
			_ = bw.Close()
			return buf.Bytes()
		},
	}

	for encoding, encode := range encoders {
		t.Run(encoding, func(t *testing.T) {
			body := encode(payload)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Contains(t, r.Header.Get("Accept-Encoding"), encoding)
				w.Header().Set("Content-Encoding", encoding)
				_, _ = w.Write(body)
			}))
			defer srv.Close()

			fixtures, err := newTestClient(t, srv.URL, testKey).FixturesByDate(context.Background(), matchDay)
			require.NoError(t, err)
			require.Len(t, fixtures, 1)
			assert.Equal(t, 7, fixtures[0].ID)
		})
	}
}

func TestCallDelay(t *testing.T) {
	srv := apifootballtest.New(testKey)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: testKey, CallDelay: 40 * time.Millisecond}, nil)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.TeamStatistics(ctx, 40+i, 39, 2025)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Equal(t, 3, srv.StatsCalls())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := c.TeamStatistics(cancelled, 40, 39, 2025)
	assert.ErrorIs(t, err, context.Canceled)
}
