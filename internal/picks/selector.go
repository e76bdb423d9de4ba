package picks

import (
	"fmt"
	"sort"
	"time"

	"github.com/fortuna/btts/internal/model"
)

// Config holds the qualification threshold and diversity rules.
type Config struct {
	MinScore              int           // fixtures below this never qualify
	MaxPicks              int           // K
	SameCompetitionMargin int           // score gap to the first pick that allows a second pick from its competition
	MinKickoffGap         time.Duration // picks must kick off at least this far apart
}

// DefaultConfig returns K=2, margin 10, gap 2h and the classic threshold.
func DefaultConfig() Config {
	return Config{
		MinScore:              50,
		MaxPicks:              2,
		SameCompetitionMargin: 10,
		MinKickoffGap:         2 * time.Hour,
	}
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if c.MinScore < 1 {
		return fmt.Errorf("min score must be at least 1, got %d", c.MinScore)
	}
	if c.MaxPicks < 1 {
		return fmt.Errorf("max picks must be at least 1, got %d", c.MaxPicks)
	}
	if c.SameCompetitionMargin < 0 {
		return fmt.Errorf("same competition margin must not be negative, got %d", c.SameCompetitionMargin)
	}
	if c.MinKickoffGap < 0 {
		return fmt.Errorf("min kickoff gap must not be negative, got %s", c.MinKickoffGap)
	}
	return nil
}

// Selector chooses the final picks from scored fixtures.
type Selector struct {
	cfg Config
}

// NewSelector validates cfg and returns a Selector.
func NewSelector(cfg Config) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Selector{cfg: cfg}, nil
}

// Config returns the selector's configuration.
func (s *Selector) Config() Config {
	return s.cfg
}

// Qualified returns the fixtures reaching the threshold, best first. Equal
// scores keep their input order.
func (s *Selector) Qualified(scored []model.ScoredFixture) []model.ScoredFixture {
	qualified := make([]model.ScoredFixture, 0, len(scored))
	for _, sf := range scored {
		if sf.Score() >= s.cfg.MinScore && sf.Score() > 0 {
			qualified = append(qualified, sf)
		}
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].Score() > qualified[j].Score()
	})
	return qualified
}

// Select returns at most MaxPicks picks. It walks the qualified fixtures
// best first, skipping candidates that break a diversity rule; when that
// leaves fewer picks than qualified fixtures allow, it falls back to the
// plain top scores.
func (s *Selector) Select(scored []model.ScoredFixture) []model.Pick {
	qualified := s.Qualified(scored)
	if len(qualified) == 0 {
		return []model.Pick{}
	}

	accepted := make([]model.ScoredFixture, 0, s.cfg.MaxPicks)
	for _, candidate := range qualified {
		if len(accepted) == s.cfg.MaxPicks {
			break
		}
		if s.violatesCompetitionRule(candidate, accepted) || s.violatesKickoffRule(candidate, accepted) {
			continue
		}
		accepted = append(accepted, candidate)
	}

	if want := min(s.cfg.MaxPicks, len(qualified)); len(accepted) < want {
		accepted = qualified[:want]
	}

	picks := make([]model.Pick, 0, len(accepted))
	for i, sf := range accepted {
		picks = append(picks, model.Pick{ScoredFixture: sf, Rank: i + 1})
	}
	return picks
}

// violatesCompetitionRule skips a second pick from an already represented
// competition unless the first pick outscores it by at least the margin.
func (s *Selector) violatesCompetitionRule(candidate model.ScoredFixture, accepted []model.ScoredFixture) bool {
	if len(accepted) == 0 {
		return false
	}
	shared := false
	for _, p := range accepted {
		if p.Fixture.Competition.ID == candidate.Fixture.Competition.ID {
			shared = true
			break
		}
	}
	if !shared {
		return false
	}
	return accepted[0].Score()-candidate.Score() < s.cfg.SameCompetitionMargin
}

// violatesKickoffRule skips candidates kicking off strictly closer than the
// minimum gap to any accepted pick. Unknown kickoffs never trip it.
func (s *Selector) violatesKickoffRule(candidate model.ScoredFixture, accepted []model.ScoredFixture) bool {
	if !candidate.Fixture.HasKickoff() {
		return false
	}
	for _, p := range accepted {
		if !p.Fixture.HasKickoff() {
			continue
		}
		gap := candidate.Fixture.Kickoff.Sub(p.Fixture.Kickoff)
		if gap < 0 {
			gap = -gap
		}
		if gap < s.cfg.MinKickoffGap {
			return true
		}
	}
	return false
}
