package selector

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/fortuna/btts/internal/model"
)

// Window is the kickoff window policy.
type Window string

const (
	// WindowDaytime keeps kickoffs between two local hours on the run's date.
	WindowDaytime Window = "daytime"
	// WindowRolling keeps kickoffs from now up to now+RollingHorizon.
	WindowRolling Window = "rolling"
)

// Downselect is the policy applied when more fixtures pass than the cap allows.
type Downselect string

const (
	// DownselectTruncate keeps the earliest fixtures. Reproducible.
	DownselectTruncate Downselect = "truncate"
	// DownselectSample draws a uniform random subset. Reproducible only with a
	// non-zero seed.
	DownselectSample Downselect = "sample"
)

// Config holds the fixture selection rules.
type Config struct {
	Competitions     map[int]model.Competition
	Window           Window
	DaytimeStartHour int // inclusive, in Location
	DaytimeEndHour   int // inclusive, in Location
	RollingHorizon   time.Duration
	Location         *time.Location
	MaxFixtures      int
	CallBudget       int // statistics lookups allowed per run, two per fixture
	Downselect       Downselect
	Seed             int64 // 0 seeds sampling from the clock
}

// DefaultConfig mirrors the daily 6 AM run: 12:00-23:59 WAT, 50 fixtures,
// 100 statistics calls, random sampling.
func DefaultConfig() Config {
	return Config{
		Window:           WindowDaytime,
		DaytimeStartHour: 12,
		DaytimeEndHour:   23,
		RollingHorizon:   48 * time.Hour,
		Location:         time.FixedZone("WAT", int(time.Hour/time.Second)),
		MaxFixtures:      50,
		CallBudget:       100,
		Downselect:       DownselectSample,
	}
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if len(c.Competitions) == 0 {
		return fmt.Errorf("no competitions configured")
	}
	switch c.Window {
	case WindowDaytime:
		if c.DaytimeStartHour < 0 || c.DaytimeEndHour > 23 || c.DaytimeStartHour > c.DaytimeEndHour {
			return fmt.Errorf("daytime window %d-%d is not a valid hour range", c.DaytimeStartHour, c.DaytimeEndHour)
		}
	case WindowRolling:
		if c.RollingHorizon <= 0 {
			return fmt.Errorf("rolling horizon must be positive, got %s", c.RollingHorizon)
		}
	default:
		return fmt.Errorf("unknown window mode %q", c.Window)
	}
	switch c.Downselect {
	case DownselectTruncate, DownselectSample:
	default:
		return fmt.Errorf("unknown downselect mode %q", c.Downselect)
	}
	if c.MaxFixtures < 1 {
		return fmt.Errorf("max fixtures must be at least 1, got %d", c.MaxFixtures)
	}
	if c.CallBudget < 2 {
		return fmt.Errorf("call budget must allow at least one fixture, got %d", c.CallBudget)
	}
	return nil
}

// Cap is the number of fixtures a run may score.
func (c Config) Cap() int {
	return min(c.MaxFixtures, c.CallBudget/2)
}

// Selector filters upstream fixtures down to the run's candidates.
type Selector struct {
	cfg    Config
	logger *slog.Logger
}

// New validates cfg and returns a Selector.
func New(cfg Config, logger *slog.Logger) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{cfg: cfg, logger: logger.With("component", "selector")}, nil
}

// Config returns the selector's configuration.
func (s *Selector) Config() Config {
	return s.cfg
}

// Policy describes the active downselect policy.
func (s *Selector) Policy() string {
	switch {
	case s.cfg.Downselect == DownselectTruncate:
		return fmt.Sprintf("truncate to %d (deterministic)", s.cfg.Cap())
	case s.cfg.Seed != 0:
		return fmt.Sprintf("random sample of %d, seed %d (reproducible)", s.cfg.Cap(), s.cfg.Seed)
	default:
		return fmt.Sprintf("random sample of %d, clock seed (not reproducible)", s.cfg.Cap())
	}
}

// QueryDates returns the UTC calendar dates the fixture source must be asked
// for to cover the window.
func (s *Selector) QueryDates(now time.Time) []time.Time {
	start := utcDate(now)
	if s.cfg.Window != WindowRolling {
		return []time.Time{start}
	}
	end := utcDate(now.Add(s.cfg.RollingHorizon))
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// Select keeps not-started fixtures in recognized competitions whose kickoff
// is inside the window, ordered by kickoff, then downselects to the cap.
// Missing competition names and countries are filled from the catalog.
func (s *Selector) Select(fixtures []model.Fixture, now time.Time) []model.Fixture {
	seen := make(map[int]bool, len(fixtures))
	var inCompetition, notStarted int
	kept := make([]model.Fixture, 0, len(fixtures))

	for _, f := range fixtures {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true

		known, ok := s.cfg.Competitions[f.Competition.ID]
		if !ok {
			continue
		}
		inCompetition++
		if f.Competition.Name == "" {
			f.Competition.Name = known.Name
		}
		if f.Competition.Country == "" {
			f.Competition.Country = known.Country
		}

		if f.Status != model.StatusNotStarted {
			continue
		}
		notStarted++

		if !s.inWindow(f, now) {
			continue
		}
		kept = append(kept, f)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if !a.Kickoff.Equal(b.Kickoff) {
			return a.Kickoff.Before(b.Kickoff)
		}
		return a.ID < b.ID
	})

	s.logger.Info("fixtures filtered",
		"total", len(seen),
		"in_competitions", inCompetition,
		"not_started", notStarted,
		"in_window", len(kept),
		"window", string(s.cfg.Window))

	if limit := s.cfg.Cap(); len(kept) > limit {
		kept = s.downselect(kept, limit)
		s.logger.Info("fixtures downselected", "kept", len(kept), "policy", s.Policy())
	}
	return kept
}

// inWindow applies the window policy. Fixtures with an unknown kickoff are
// kept.
func (s *Selector) inWindow(f model.Fixture, now time.Time) bool {
	if !f.HasKickoff() {
		return true
	}
	switch s.cfg.Window {
	case WindowRolling:
		return f.Kickoff.After(now) && !f.Kickoff.After(now.Add(s.cfg.RollingHorizon))
	default:
		hour := f.Kickoff.In(s.cfg.Location).Hour()
		return hour >= s.cfg.DaytimeStartHour && hour <= s.cfg.DaytimeEndHour
	}
}

func (s *Selector) downselect(fixtures []model.Fixture, limit int) []model.Fixture {
	if s.cfg.Downselect == DownselectTruncate {
		return fixtures[:limit]
	}

	seed := uint64(s.cfg.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	idx := rng.Perm(len(fixtures))[:limit]
	sort.Ints(idx)

	out := make([]model.Fixture, 0, limit)
	for _, i := range idx {
		out = append(out, fixtures[i])
	}
	return out
}

func utcDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
