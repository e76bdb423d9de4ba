// Package apifootballtest provides an in-process fake of the API-Football v3
// endpoints the job uses.
package apifootballtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Fixture is a fake upstream fixture.
type Fixture struct {
	ID         int
	Date       time.Time
	Status     string
	LeagueID   int
	LeagueName string
	Country    string
	HomeID     int
	HomeName   string
	AwayID     int
	AwayName   string
}

// Stats is a fake season statistics record. Empty strings are served as
// null.
type Stats struct {
	ForHome, ForAway, AgainstHome, AgainstAway string
	Form                                       string
}

// Server is a fake API-Football.
type Server struct {
	*httptest.Server

	APIKey string

	mu         sync.Mutex
	fixtures   map[string][]Fixture
	stats      map[string]Stats
	failDates  map[string]int
	failStats  map[string]int
	quotaError bool
	requests   []string
	statsCalls int
}

// New starts a fake server. Requests without the matching key get an in-band
// token error.
func New(apiKey string) *Server {
	s := &Server{
		APIKey:    apiKey,
		fixtures:  make(map[string][]Fixture),
		stats:     make(map[string]Stats),
		failDates: make(map[string]int),
		failStats: make(map[string]int),
	}

	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/fixtures", s.handleFixtures).Methods(http.MethodGet).Queries("date", "{date}")
	r.HandleFunc("/teams/statistics", s.handleStatistics).Methods(http.MethodGet).
		Queries("team", "{team:[0-9]+}", "league", "{league:[0-9]+}", "season", "{season:[0-9]+}")

	s.Server = httptest.NewServer(r)
	return s
}

// AddFixture registers a fixture under its UTC date.
func (s *Server) AddFixture(f Fixture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	date := f.Date.UTC().Format("2006-01-02")
	s.fixtures[date] = append(s.fixtures[date], f)
}

// SetStats registers statistics for a team in a league and season.
func (s *Server) SetStats(team, league, season int, st Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[statsKey(team, league, season)] = st
}

// FailDate makes the fixtures endpoint answer status for date.
func (s *Server) FailDate(date string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDates[date] = status
}

// FailStats makes the statistics endpoint answer status for a team.
func (s *Server) FailStats(team, league, season, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStats[statsKey(team, league, season)] = status
}

// QuotaExceeded makes every endpoint answer 200 with an in-band error.
func (s *Server) QuotaExceeded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotaError = true
}

// Requests returns the request paths seen so far, with query strings.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// StatsCalls returns how many statistics requests were served.
func (s *Server) StatsCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsCalls
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.RequestURI())
		quota := s.quotaError
		s.mu.Unlock()

		if r.Header.Get("x-apisports-key") != s.APIKey {
			writeJSON(w, http.StatusOK, envelope(map[string]string{"token": "Error/Missing application key."}, []any{}))
			return
		}
		if quota {
			writeJSON(w, http.StatusOK, envelope(map[string]string{"requests": "You have reached the request limit for the day."}, []any{}))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleFixtures(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]

	s.mu.Lock()
	status, fail := s.failDates[date]
	list := append([]Fixture(nil), s.fixtures[date]...)
	s.mu.Unlock()

	if fail {
		http.Error(w, "upstream failure", status)
		return
	}

	items := make([]any, 0, len(list))
	for _, f := range list {
		items = append(items, map[string]any{
			"fixture": map[string]any{
				"id":       f.ID,
				"date":     f.Date.Format(time.RFC3339),
				"timezone": "UTC",
				"status":   map[string]any{"long": f.Status, "short": f.Status},
			},
			"league": map[string]any{
				"id":      f.LeagueID,
				"name":    f.LeagueName,
				"country": f.Country,
			},
			"teams": map[string]any{
				"home": map[string]any{"id": f.HomeID, "name": f.HomeName},
				"away": map[string]any{"id": f.AwayID, "name": f.AwayName},
			},
		})
	}
	writeJSON(w, http.StatusOK, envelope([]any{}, items))
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	team, _ := strconv.Atoi(vars["team"])
	league, _ := strconv.Atoi(vars["league"])
	season, _ := strconv.Atoi(vars["season"])
	key := statsKey(team, league, season)

	s.mu.Lock()
	s.statsCalls++
	status, fail := s.failStats[key]
	st, ok := s.stats[key]
	s.mu.Unlock()

	if fail {
		http.Error(w, "upstream failure", status)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, envelope([]any{}, []any{}))
		return
	}

	writeJSON(w, http.StatusOK, envelope([]any{}, map[string]any{
		"league": map[string]any{"id": league, "season": season},
		"team":   map[string]any{"id": team},
		"form":   nullable(st.Form),
		"goals": map[string]any{
			"for": map[string]any{
				"average": map[string]any{"home": nullable(st.ForHome), "away": nullable(st.ForAway)},
			},
			"against": map[string]any{
				"average": map[string]any{"home": nullable(st.AgainstHome), "away": nullable(st.AgainstAway)},
			},
		},
	}))
}

func envelope(errs any, response any) map[string]any {
	return map[string]any{
		"get":      "",
		"errors":   errs,
		"response": response,
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func statsKey(team, league, season int) string {
	return fmt.Sprintf("%d:%d:%d", team, league, season)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
