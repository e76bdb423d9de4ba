package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/fortuna/btts/internal/model"
	"github.com/fortuna/btts/internal/publisher"
)

// FixtureSource lists fixtures for a UTC calendar date.
type FixtureSource interface {
	FixturesByDate(ctx context.Context, date time.Time) ([]model.Fixture, error)
}

// StatsSource looks up a team's season statistics. nil, nil means no data.
type StatsSource interface {
	TeamStatistics(ctx context.Context, teamID, competitionID, season int) (*model.TeamSeasonStats, error)
}

// Publisher fans a run's outcome out to downstream consumers.
type Publisher interface {
	PublishPicks(ctx context.Context, event publisher.PicksEvent) (string, error)
}

// callCounter is implemented by sources that count their upstream requests.
type callCounter interface {
	Calls() int
}

// cacheCounter is implemented by statistics sources backed by a cache.
type cacheCounter interface {
	Stats() (hits, misses int)
}

// Outcome is which of the three reports a run produced.
type Outcome string

const (
	OutcomeNoFixtures        Outcome = "no_fixtures"
	OutcomeSourceUnavailable Outcome = "source_unavailable"
	OutcomeNoPicks           Outcome = "no_picks"
	OutcomePicks             Outcome = "picks"
)

// Result summarizes one run.
type Result struct {
	RunID      string
	StartedAt  time.Time
	Season     int
	QueryDates int

	Fetched   int
	Selected  int
	Scored    int
	Qualified int

	Scores  []model.ScoredFixture
	Picks   []model.Pick
	Outcome Outcome
	Payload string

	FixtureErrors int
	StatsErrors   int
	StatsCalls    int

	// UpstreamCalls counts requests the fixture source issued during the run,
	// statistics included when both go through the same client. It is zero
	// when the source does not count.
	UpstreamCalls int
	CallBudget    int
	CacheHits     int
	CacheMisses   int

	Delivered bool
	StreamID  string
}

// UpstreamFailed reports whether every fixture query failed.
func (r *Result) UpstreamFailed() bool {
	return r.QueryDates > 0 && r.FixtureErrors == r.QueryDates
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnRunStart(runID string, now time.Time)
	OnFixturesSelected(fetched, selected int, policy string)
	OnFixtureScored(sf model.ScoredFixture, index, total int)
	OnPicksSelected(picks []model.Pick, qualified int)
	OnRunComplete(res *Result)
	OnRunError(err error)
}

// LogReporter writes progress to a structured logger.
type LogReporter struct {
	Logger *slog.Logger
}

func (l LogReporter) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l LogReporter) OnRunStart(runID string, now time.Time) {
	l.logger().Info("run started", "run_id", runID, "now", now.UTC().Format(time.RFC3339))
}

func (l LogReporter) OnFixturesSelected(fetched, selected int, policy string) {
	l.logger().Info("fixtures selected", "fetched", fetched, "selected", selected, "policy", policy)
}

func (l LogReporter) OnFixtureScored(sf model.ScoredFixture, index, total int) {
	l.logger().Info("fixture scored",
		"progress", index+1,
		"total", total,
		"fixture", sf.Fixture.Label(),
		"competition", sf.Fixture.Competition.Name,
		"score", sf.Score())
}

func (l LogReporter) OnPicksSelected(picks []model.Pick, qualified int) {
	for _, p := range picks {
		l.logger().Info("✓ pick", "rank", p.Rank, "fixture", p.Fixture.Label(), "score", p.Score())
	}
	l.logger().Info("picks selected", "picks", len(picks), "qualified", qualified)
}

func (l LogReporter) OnRunComplete(res *Result) {
	l.logger().Info("✓ run complete",
		"outcome", string(res.Outcome),
		"picks", len(res.Picks),
		"stats_calls", res.StatsCalls,
		"upstream_calls", res.UpstreamCalls,
		"call_budget", res.CallBudget,
		"cache_hits", res.CacheHits,
		"cache_misses", res.CacheMisses,
		"fixture_errors", res.FixtureErrors,
		"stats_errors", res.StatsErrors,
		"delivered", res.Delivered)
}

func (l LogReporter) OnRunError(err error) {
	l.logger().Error("run failed", "error", err)
}
