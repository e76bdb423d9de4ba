package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Status is the normalized lifecycle state of a fixture.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
	StatusOther      Status = "other" // postponed, cancelled, abandoned, awarded
)

// Team identifies one side of a fixture.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Competition is a league or cup as known to the fixture source.
type Competition struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// DisplayName returns "Name (Country)" when the country is known.
func (c Competition) DisplayName() string {
	if c.Country == "" {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.Country)
}

// Fixture is a scheduled match as retrieved from upstream. It is treated as
// immutable once parsed.
type Fixture struct {
	ID          int         `json:"id"`
	Home        Team        `json:"home"`
	Away        Team        `json:"away"`
	Competition Competition `json:"competition"`
	Kickoff     time.Time   `json:"kickoff"` // UTC, zero when upstream sent an unparseable date
	Status      Status      `json:"status"`
	StatusCode  string      `json:"status_code"`
}

// HasKickoff reports whether the kickoff time is known.
func (f Fixture) HasKickoff() bool {
	return !f.Kickoff.IsZero()
}

// Label is the "Home vs Away" line used in logs and reports.
func (f Fixture) Label() string {
	return f.Home.Name + " vs " + f.Away.Name
}

// Stat is a numeric season aggregate that may be unavailable.
type Stat struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Known wraps a value as an available statistic.
func Known(v float64) Stat {
	return Stat{Value: v, Valid: true}
}

// Unavailable is the explicit "no usable value" marker.
var Unavailable = Stat{}

// ParseStat parses an upstream average. Empty, non-numeric, negative and
// non-finite input yields Unavailable.
func ParseStat(raw string) Stat {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Unavailable
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return Unavailable
	}
	return Known(v)
}

// Rounded returns the statistic rounded to two decimal places.
func (s Stat) Rounded() Stat {
	if !s.Valid {
		return s
	}
	return Known(math.Round(s.Value*100) / 100)
}

// Display renders the statistic for reports.
func (s Stat) Display() string {
	if !s.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}

// Form is a team's recent W/D/L sequence, oldest first.
type Form struct {
	Results string `json:"results"`
	Valid   bool   `json:"valid"`
}

// ParseForm accepts a W/D/L string. Any other character makes the form
// unavailable.
func ParseForm(raw string) Form {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return Form{}
	}
	for _, r := range raw {
		if r != 'W' && r != 'D' && r != 'L' {
			return Form{}
		}
	}
	return Form{Results: raw, Valid: true}
}

// Wins counts wins in the last window results. A window <= 0 counts all of
// them. Unavailable form returns -1.
func (f Form) Wins(window int) int {
	if !f.Valid {
		return -1
	}
	results := f.Results
	if window > 0 && len(results) > window {
		results = results[len(results)-window:]
	}
	return strings.Count(results, "W")
}

// TeamSeasonStats holds one team's season aggregates in one competition.
// A nil *TeamSeasonStats means the source had no data.
type TeamSeasonStats struct {
	TeamID           int  `json:"team_id"`
	CompetitionID    int  `json:"competition_id"`
	Season           int  `json:"season"`
	GoalsForHome     Stat `json:"goals_for_home"`
	GoalsForAway     Stat `json:"goals_for_away"`
	GoalsAgainstHome Stat `json:"goals_against_home"`
	GoalsAgainstAway Stat `json:"goals_against_away"`
	Form             Form `json:"form"`
}

// Factor is one weighted contribution to a score.
type Factor struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Max       int    `json:"max"`
	Available bool   `json:"available"`
}

// ScoreBreakdown is the result of scoring one fixture. It is built fresh for
// every run and never persisted.
type ScoreBreakdown struct {
	Profile         string   `json:"profile"`
	Score           int      `json:"score"`
	Max             int      `json:"max"`
	Factors         []Factor `json:"factors"`
	HomeGoalsAvg    Stat     `json:"home_goals_avg"`
	AwayGoalsAvg    Stat     `json:"away_goals_avg"`
	HomeConcededAvg Stat     `json:"home_conceded_avg"`
	AwayConcededAvg Stat     `json:"away_conceded_avg"`
	HomeFormWins    int      `json:"home_form_wins"` // -1 when unknown
	AwayFormWins    int      `json:"away_form_wins"` // -1 when unknown
	UsesForm        bool     `json:"uses_form"`
}

// Factor returns the named factor, if present.
func (b ScoreBreakdown) Factor(name string) (Factor, bool) {
	for _, f := range b.Factors {
		if f.Name == name {
			return f, true
		}
	}
	return Factor{}, false
}

// ScoredFixture pairs a fixture with its breakdown. Index is the fixture's
// position in the selector output and breaks score ties.
type ScoredFixture struct {
	Fixture   Fixture        `json:"fixture"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	Index     int            `json:"index"`
}

// Score is shorthand for Breakdown.Score.
func (s ScoredFixture) Score() int {
	return s.Breakdown.Score
}

// Pick is a scored fixture accepted into the final output, ranked from 1.
type Pick struct {
	ScoredFixture
	Rank int `json:"rank"`
}
