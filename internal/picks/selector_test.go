package picks

import (
	"math/rand/v2"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/btts/internal/model"
)

var day = time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

var nextID = 0

func fixture(score, competition int, kickoff time.Time) model.ScoredFixture {
	nextID++
	return model.ScoredFixture{
		Fixture: model.Fixture{
			ID:          nextID,
			Competition: model.Competition{ID: competition, Name: "Competition"},
			Kickoff:     kickoff,
			Status:      model.StatusNotStarted,
		},
		Breakdown: model.ScoreBreakdown{Score: score, Max: 100},
		Index:     nextID,
	}
}

func newSelector(t *testing.T, mutate func(*Config)) *Selector {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewSelector(cfg)
	require.NoError(t, err)
	return s
}

func scores(picks []model.Pick) []int {
	out := make([]int, 0, len(picks))
	for _, p := range picks {
		out = append(out, p.Score())
	}
	return out
}

func TestEndToEndExample(t *testing.T) {
	s := newSelector(t, nil)
	a72 := fixture(72, 1, at(14, 0))
	a55 := fixture(55, 1, at(15, 30))
	b60 := fixture(60, 2, at(20, 0))

	got := s.Select([]model.ScoredFixture{a72, a55, b60})
	require.Len(t, got, 2)
	assert.Equal(t, a72.Fixture.ID, got[0].Fixture.ID)
	assert.Equal(t, b60.Fixture.ID, got[1].Fixture.ID)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, 2, got[1].Rank)
}

func TestSameCompetitionCloseKickoffFallsBackToTopK(t *testing.T) {
	// 72-55 clears the margin but the kickoffs are 90 minutes apart, so the
	// greedy walk finds one pick and the fallback takes the top two.
	s := newSelector(t, nil)
	got := s.Select([]model.ScoredFixture{
		fixture(72, 1, at(14, 0)),
		fixture(55, 1, at(15, 30)),
	})
	assert.Equal(t, []int{72, 55}, scores(got))
}

func TestSameCompetitionMargin(t *testing.T) {
	s := newSelector(t, nil)

	t.Run("gap 12 allows both", func(t *testing.T) {
		got := s.Select([]model.ScoredFixture{
			fixture(80, 1, at(12, 0)),
			fixture(68, 1, at(18, 0)),
			fixture(60, 2, at(21, 0)),
		})
		assert.Equal(t, []int{80, 68}, scores(got))
	})

	t.Run("gap 5 skips to next competition", func(t *testing.T) {
		got := s.Select([]model.ScoredFixture{
			fixture(80, 1, at(12, 0)),
			fixture(75, 1, at(18, 0)),
			fixture(60, 2, at(21, 0)),
		})
		assert.Equal(t, []int{80, 60}, scores(got))
	})

	t.Run("gap exactly at margin allows", func(t *testing.T) {
		got := s.Select([]model.ScoredFixture{
			fixture(80, 1, at(12, 0)),
			fixture(70, 1, at(18, 0)),
			fixture(65, 2, at(21, 0)),
		})
		assert.Equal(t, []int{80, 70}, scores(got))
	})

	t.Run("competition compared by id not name", func(t *testing.T) {
		england := fixture(80, 39, at(12, 0))
		england.Fixture.Competition.Name = "Premier League"
		russia := fixture(78, 235, at(18, 0))
		russia.Fixture.Competition.Name = "Premier League"
		got := s.Select([]model.ScoredFixture{england, russia})
		assert.Equal(t, []int{80, 78}, scores(got))
	})
}

func TestKickoffGap(t *testing.T) {
	s := newSelector(t, nil)

	t.Run("90 minutes apart skipped", func(t *testing.T) {
		got := s.Select([]model.ScoredFixture{
			fixture(80, 1, at(14, 0)),
			fixture(75, 2, at(15, 30)),
			fixture(60, 3, at(19, 0)),
		})
		assert.Equal(t, []int{80, 60}, scores(got))
	})

	t.Run("earlier kickoff within gap skipped", func(t *testing.T) {
		got := s.Select([]model.ScoredFixture{
			fixture(80, 1, at(14, 0)),
			fixture(75, 2, at(12, 30)),
			fixture(60, 3, at(19, 0)),
		})
		assert.Equal(t, []int{80, 60}, scores(got))
	})

	t.Run("3 hours apart both selected", func(t *testing.T) {
		got := s.Select([]model.ScoredFixture{
			fixture(80, 1, at(14, 0)),
			fixture(75, 2, at(17, 0)),
		})
		assert.Equal(t, []int{80, 75}, scores(got))
	})

	t.Run("exactly the gap is allowed", func(t *testing.T) {
		got := s.Select([]model.ScoredFixture{
			fixture(80, 1, at(14, 0)),
			fixture(75, 2, at(16, 0)),
			fixture(70, 3, at(21, 0)),
		})
		assert.Equal(t, []int{80, 75}, scores(got))
	})

	t.Run("unknown kickoff never trips the rule", func(t *testing.T) {
		got := s.Select([]model.ScoredFixture{
			fixture(80, 1, at(14, 0)),
			fixture(75, 2, time.Time{}),
		})
		assert.Equal(t, []int{80, 75}, scores(got))
	})

	t.Run("checked against every accepted pick", func(t *testing.T) {
		s3 := newSelector(t, func(c *Config) { c.MaxPicks = 3 })
		got := s3.Select([]model.ScoredFixture{
			fixture(90, 1, at(12, 0)),
			fixture(85, 2, at(18, 0)),
			fixture(80, 3, at(19, 0)), // close to the second pick only
			fixture(70, 4, at(22, 0)),
		})
		assert.Equal(t, []int{90, 85, 70}, scores(got))
	})
}

func TestThresholdAndShortLists(t *testing.T) {
	s := newSelector(t, nil)

	assert.Empty(t, s.Select(nil))
	assert.Empty(t, s.Select([]model.ScoredFixture{fixture(49, 1, at(12, 0)), fixture(0, 2, at(18, 0))}))

	got := s.Select([]model.ScoredFixture{fixture(49, 1, at(12, 0)), fixture(50, 2, at(18, 0))})
	assert.Equal(t, []int{50}, scores(got))

	// fewer than K qualify and diversity blocks one: every qualifier is returned
	s3 := newSelector(t, func(c *Config) { c.MaxPicks = 3 })
	got = s3.Select([]model.ScoredFixture{fixture(70, 1, at(12, 0)), fixture(66, 1, at(12, 30))})
	assert.Equal(t, []int{70, 66}, scores(got))
}

func TestZeroScoreNeverSelectedEvenWithLowThreshold(t *testing.T) {
	s := newSelector(t, func(c *Config) { c.MinScore = 1 })
	got := s.Select([]model.ScoredFixture{fixture(0, 1, at(12, 0)), fixture(0, 2, at(18, 0))})
	assert.Empty(t, got)
}

func TestTiesKeepInputOrder(t *testing.T) {
	s := newSelector(t, nil)
	first := fixture(60, 1, at(12, 0))
	second := fixture(60, 2, at(15, 0))
	third := fixture(60, 3, at(18, 0))

	got := s.Select([]model.ScoredFixture{first, second, third})
	require.Len(t, got, 2)
	assert.Equal(t, first.Fixture.ID, got[0].Fixture.ID)
	assert.Equal(t, second.Fixture.ID, got[1].Fixture.ID)

	q := s.Qualified([]model.ScoredFixture{third, first, second})
	assert.Equal(t, third.Fixture.ID, q[0].Fixture.ID)
}

func TestConfigValidate(t *testing.T) {
	_, err := NewSelector(Config{MinScore: 0, MaxPicks: 2})
	assert.Error(t, err)
	_, err = NewSelector(Config{MinScore: 10, MaxPicks: 0})
	assert.Error(t, err)
	_, err = NewSelector(Config{MinScore: 10, MaxPicks: 2, SameCompetitionMargin: -1})
	assert.Error(t, err)
	_, err = NewSelector(Config{MinScore: 10, MaxPicks: 2, MinKickoffGap: -time.Minute})
	assert.Error(t, err)
}

// Random inputs: never more than K, sorted descending, and never better than
// the unconstrained top K.
func TestSelectionProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for _, k := range []int{1, 2, 3} {
		s := newSelector(t, func(c *Config) { c.MaxPicks = k; c.MinScore = 35 })
		for round := 0; round < 300; round++ {
			n := rng.IntN(8)
			scored := make([]model.ScoredFixture, 0, n)
			for i := 0; i < n; i++ {
				scored = append(scored, fixture(rng.IntN(101), 1+rng.IntN(3), at(12+rng.IntN(11), rng.IntN(4)*15)))
			}

			got := s.Select(scored)
			require.LessOrEqual(t, len(got), k)

			picked := scores(got)
			assert.True(t, sort.SliceIsSorted(picked, func(i, j int) bool { return picked[i] > picked[j] }))

			all := make([]int, 0, n)
			for _, sf := range scored {
				if sf.Score() >= 35 {
					all = append(all, sf.Score())
				}
			}
			sort.Sort(sort.Reverse(sort.IntSlice(all)))
			if len(all) > k {
				all = all[:k]
			}
			assert.Equal(t, len(all), len(picked))
			for i := range picked {
				assert.LessOrEqual(t, picked[i], all[i])
			}
		}
	}
}
