package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/btts/internal/model"
	"github.com/fortuna/btts/internal/notify"
	"github.com/fortuna/btts/internal/picks"
	"github.com/fortuna/btts/internal/publisher"
	"github.com/fortuna/btts/internal/report"
	"github.com/fortuna/btts/internal/scoring"
	"github.com/fortuna/btts/internal/selector"
)

// Deps wires a Runner. Publisher and Reporter are optional.
type Deps struct {
	Fixtures  FixtureSource
	Stats     StatsSource
	Notifier  notify.Notifier
	Publisher Publisher
	Selector  *selector.Selector
	Engine    *scoring.Engine
	Picker    *picks.Selector
	Formatter *report.Formatter
	Clock     func() time.Time
	Season    int
	Logger    *slog.Logger
	Reporter  Reporter
}

// Runner executes one daily run: fetch, select, score, pick, render, deliver.
type Runner struct {
	deps Deps
}

// NewRunner checks that every required dependency is present.
func NewRunner(deps Deps) (*Runner, error) {
	switch {
	case deps.Fixtures == nil:
		return nil, errors.New("pipeline: fixture source is required")
	case deps.Stats == nil:
		return nil, errors.New("pipeline: statistics source is required")
	case deps.Notifier == nil:
		return nil, errors.New("pipeline: notifier is required")
	case deps.Selector == nil || deps.Engine == nil || deps.Picker == nil || deps.Formatter == nil:
		return nil, errors.New("pipeline: selector, engine, picker and formatter are required")
	case deps.Season <= 0:
		return nil, fmt.Errorf("pipeline: season must be positive, got %d", deps.Season)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Runner{deps: deps}, nil
}

// Run executes the job once. Upstream failures degrade to "no data"; only
// delivery failures and cancellation are returned as errors. The Result is
// populated as far as the run got.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	now := r.deps.Clock()
	res := &Result{
		RunID:      uuid.NewString(),
		StartedAt:  now,
		Season:     r.deps.Season,
		CallBudget: r.deps.Selector.Config().CallBudget,
	}
	logger := r.deps.Logger.With("component", "pipeline", "run_id", res.RunID)
	reporter := r.deps.Reporter
	if reporter == nil {
		reporter = LogReporter{Logger: logger}
	}

	reporter.OnRunStart(res.RunID, now)
	tally := r.counters(res)

	fail := func(err error) (*Result, error) {
		tally()
		reporter.OnRunError(err)
		return res, err
	}

	fixtures, err := r.fetchFixtures(ctx, now, res, logger)
	if err != nil {
		return fail(err)
	}
	res.Fetched = len(fixtures)

	selected := r.deps.Selector.Select(fixtures, now)
	res.Selected = len(selected)
	reporter.OnFixturesSelected(res.Fetched, res.Selected, r.deps.Selector.Policy())

	summary := report.Summary{Candidates: res.Selected, Profile: r.deps.Engine.Profile().Name}

	switch {
	case len(selected) == 0 && res.UpstreamFailed():
		res.Outcome = OutcomeSourceUnavailable
		res.Payload = r.deps.Formatter.SourceUnavailable(now)
	case len(selected) == 0:
		res.Outcome = OutcomeNoFixtures
		res.Payload = r.deps.Formatter.NoFixtures(now)
	default:
		scored, err := r.scoreFixtures(ctx, selected, res, reporter, logger)
		if err != nil {
			return fail(err)
		}
		res.Scores = scored
		res.Scored = len(scored)
		res.Qualified = len(r.deps.Picker.Qualified(scored))
		res.Picks = r.deps.Picker.Select(scored)
		reporter.OnPicksSelected(res.Picks, res.Qualified)

		summary.Scored = res.Scored
		summary.Qualified = res.Qualified
		if len(res.Picks) == 0 {
			res.Outcome = OutcomeNoPicks
			res.Payload = r.deps.Formatter.NoPicks(now, summary)
		} else {
			res.Outcome = OutcomePicks
			res.Payload = r.deps.Formatter.Picks(now, res.Picks, summary)
		}
	}

	if err := r.deps.Notifier.Notify(ctx, res.Payload); err != nil {
		return fail(fmt.Errorf("deliver report: %w", err))
	}
	res.Delivered = true

	r.publish(ctx, now, res, logger)

	tally()
	reporter.OnRunComplete(res)
	return res, nil
}

// counters snapshots the sources' request and cache counters and returns a
// func that records what the run added to them.
func (r *Runner) counters(res *Result) func() {
	calls, _ := r.deps.Fixtures.(callCounter)
	cached, _ := r.deps.Stats.(cacheCounter)

	var calls0, hits0, misses0 int
	if calls != nil {
		calls0 = calls.Calls()
	}
	if cached != nil {
		hits0, misses0 = cached.Stats()
	}

	return func() {
		if calls != nil {
			res.UpstreamCalls = calls.Calls() - calls0
		}
		if cached != nil {
			hits, misses := cached.Stats()
			res.CacheHits = hits - hits0
			res.CacheMisses = misses - misses0
		}
	}
}

// fetchFixtures queries every date the window needs. A failed date is logged
// and counted; the run continues with whatever the other dates returned.
func (r *Runner) fetchFixtures(ctx context.Context, now time.Time, res *Result, logger *slog.Logger) ([]model.Fixture, error) {
	dates := r.deps.Selector.QueryDates(now)
	res.QueryDates = len(dates)

	var all []model.Fixture
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fixtures, err := r.deps.Fixtures.FixturesByDate(ctx, date)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			res.FixtureErrors++
			logger.Warn("fixture query failed", "date", date.Format("2006-01-02"), "error", err)
			continue
		}
		all = append(all, fixtures...)
	}
	return all, nil
}

type statsKey struct{ team, competition int }

// scoreFixtures scores sequentially. Each team's statistics are looked up at
// most once per run; a failed lookup is scored as missing data.
func (r *Runner) scoreFixtures(ctx context.Context, fixtures []model.Fixture, res *Result, reporter Reporter, logger *slog.Logger) ([]model.ScoredFixture, error) {
	memo := make(map[statsKey]*model.TeamSeasonStats)
	lookup := func(teamID, competitionID int) (*model.TeamSeasonStats, error) {
		key := statsKey{teamID, competitionID}
		if s, ok := memo[key]; ok {
			return s, nil
		}
		res.StatsCalls++
		s, err := r.deps.Stats.TeamStatistics(ctx, teamID, competitionID, r.deps.Season)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			res.StatsErrors++
			logger.Warn("statistics lookup failed", "team", teamID, "competition", competitionID, "error", err)
			s = nil
		}
		memo[key] = s
		return s, nil
	}

	scored := make([]model.ScoredFixture, 0, len(fixtures))
	for i, f := range fixtures {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		home, err := lookup(f.Home.ID, f.Competition.ID)
		if err != nil {
			return nil, err
		}
		away, err := lookup(f.Away.ID, f.Competition.ID)
		if err != nil {
			return nil, err
		}

		sf := model.ScoredFixture{
			Fixture:   f,
			Breakdown: r.deps.Engine.Score(home, away),
			Index:     i,
		}
		scored = append(scored, sf)
		reporter.OnFixtureScored(sf, i, len(fixtures))
	}
	return scored, nil
}

// publish appends the outcome to the picks stream. Failures are logged only.
func (r *Runner) publish(ctx context.Context, now time.Time, res *Result, logger *slog.Logger) {
	if r.deps.Publisher == nil {
		return
	}

	text, err := report.PlainText(res.Payload)
	if err != nil {
		logger.Warn("plain text rendering failed", "error", err)
		text = res.Payload
	}

	id, err := r.deps.Publisher.PublishPicks(ctx, publisher.PicksEvent{
		RunID:       res.RunID,
		Date:        now.UTC().Format("2006-01-02"),
		Profile:     r.deps.Engine.Profile().Name,
		Candidates:  res.Selected,
		Qualified:   res.Qualified,
		Picks:       res.Picks,
		Text:        text,
		GeneratedAt: now.UTC(),
	})
	if err != nil {
		logger.Warn("publish picks failed", "error", err)
		return
	}
	res.StreamID = id
	logger.Info("✓ picks published", "stream_id", id)
}
