package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/btts/internal/model"
)

func stats(goalsForHome, goalsForAway, againstHome, againstAway model.Stat, form string) *model.TeamSeasonStats {
	return &model.TeamSeasonStats{
		GoalsForHome:     goalsForHome,
		GoalsForAway:     goalsForAway,
		GoalsAgainstHome: againstHome,
		GoalsAgainstAway: againstAway,
		Form:             model.ParseForm(form),
	}
}

func k(v float64) model.Stat { return model.Known(v) }

func TestBuiltinProfilesValidate(t *testing.T) {
	for name, p := range Profiles() {
		require.NoError(t, p.Validate(), name)
		assert.Equal(t, 100, p.MaxScore(), name)
	}
	assert.Equal(t, 50, Classic().MinScore)
	assert.Equal(t, 35, FormWeighted().MinScore)
}

func TestLookupProfile(t *testing.T) {
	p, err := LookupProfile("form")
	require.NoError(t, err)
	assert.NotNil(t, p.Form)

	_, err = LookupProfile("aggressive")
	assert.True(t, errors.Is(err, ErrUnknownProfile))
	assert.Equal(t, []string{"classic", "form"}, ProfileNames())
}

func TestValidateRejectsBadTiers(t *testing.T) {
	p := Classic()
	p.HomeScoring = Tiers{{1.0, 10}, {1.5, 20}}
	assert.Error(t, p.Validate())

	p = Classic()
	p.MinScore = 0
	assert.Error(t, p.Validate())

	p = Classic()
	p.MinScore = 101
	assert.Error(t, p.Validate())
}

func TestTierBoundaries(t *testing.T) {
	home := Classic().HomeScoring
	assert.Equal(t, 25, home.Points(1.8))
	assert.Equal(t, 20, home.Points(1.79))
	assert.Equal(t, 15, home.Points(1.2))
	assert.Equal(t, 10, home.Points(1.0))
	assert.Equal(t, 0, home.Points(0.99))

	away := Classic().AwayScoring
	assert.Equal(t, 25, away.Points(1.5))
	assert.Equal(t, 10, away.Points(0.8))
	assert.Equal(t, 0, away.Points(0.79))
}

func TestClassicScore(t *testing.T) {
	e := NewEngine(Classic())
	home := stats(k(1.9), k(0.2), k(1.3), k(0), "")
	away := stats(k(0), k(1.1), k(0), k(0.85), "")

	b := e.Score(home, away)
	// 25 + 15 + 20 + 10
	assert.Equal(t, 70, b.Score)
	assert.Equal(t, 100, b.Max)
	assert.Equal(t, "classic", b.Profile)
	assert.Len(t, b.Factors, 4)
	assert.False(t, b.UsesForm)
	assert.Equal(t, "1.90", b.HomeGoalsAvg.Display())
	assert.Equal(t, "1.10", b.AwayGoalsAvg.Display())
	assert.Equal(t, "1.30", b.HomeConcededAvg.Display())
	assert.Equal(t, "0.85", b.AwayConcededAvg.Display())
	assert.Equal(t, -1, b.HomeFormWins)
}

func TestAllStatsAbsentScoresZero(t *testing.T) {
	for _, p := range Profiles() {
		b := NewEngine(p).Score(nil, nil)
		assert.Equal(t, 0, b.Score, p.Name)
		for _, f := range b.Factors {
			assert.False(t, f.Available, "%s/%s", p.Name, f.Name)
		}
		assert.Equal(t, "N/A", b.HomeGoalsAvg.Display())
	}
}

func TestOneMissingFactorDoesNotAbortOthers(t *testing.T) {
	e := NewEngine(Classic())
	home := stats(model.ParseStat("abc"), k(0), k(1.6), k(0), "")
	away := stats(k(0), k(1.6), k(0), model.Unavailable, "")

	b := e.Score(home, away)
	assert.Equal(t, 50, b.Score)

	f, ok := b.Factor(FactorHomeScoring)
	require.True(t, ok)
	assert.False(t, f.Available)
	assert.Equal(t, 0, f.Points)

	f, ok = b.Factor(FactorAwayScoring)
	require.True(t, ok)
	assert.True(t, f.Available)
	assert.Equal(t, 25, f.Points)
}

func TestOneSideAbsent(t *testing.T) {
	e := NewEngine(Classic())
	home := stats(k(2.0), k(0), k(1.5), k(0), "")
	b := e.Score(home, nil)
	assert.Equal(t, 50, b.Score)
	assert.Equal(t, "N/A", b.AwayGoalsAvg.Display())
}

func TestFormBonus(t *testing.T) {
	e := NewEngine(FormWeighted())
	base := func(form string) *model.TeamSeasonStats {
		return stats(model.Unavailable, model.Unavailable, model.Unavailable, model.Unavailable, form)
	}

	cases := []struct {
		name       string
		home, away *model.TeamSeasonStats
		want       int
		available  bool
	}{
		{"full bonus", base("LLWDW"), base("DDDLW"), 20, true},
		{"home one win only", base("LLLDW"), base("DDDLL"), 10, true},
		{"away win only", base("LLLDD"), base("WLLLL"), 10, true},
		{"home two wins away none", base("WWLLL"), base("LLLLL"), 10, true},
		{"no wins", base("LDLDL"), base("DDLLD"), 0, true},
		{"wins outside window", base("WWWLLLLL"), base("WLLLLLL"), 0, true},
		{"home form unknown", base(""), base("WWLLL"), 10, true},
		{"both unknown", base(""), base("?"), 0, false},
		{"both nil", nil, nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := e.Score(tc.home, tc.away)
			f, ok := b.Factor(FactorForm)
			require.True(t, ok)
			assert.Equal(t, tc.want, f.Points)
			assert.Equal(t, tc.available, f.Available)
			assert.Equal(t, tc.want, b.Score)
		})
	}
}

func TestScoreAlwaysBounded(t *testing.T) {
	values := []model.Stat{
		model.Unavailable, k(0), k(0.79), k(0.8), k(1.0), k(1.19), k(1.2), k(1.5), k(1.8), k(4.5),
	}
	forms := []string{"", "WWWWW", "LLLLL", "WDLWD"}

	for _, p := range Profiles() {
		e := NewEngine(p)
		for _, a := range values {
			for _, b := range values {
				for _, form := range forms {
					home := stats(a, b, b, a, form)
					away := stats(b, a, a, b, form)
					got := e.Score(home, away)
					if got.Score < 0 || got.Score > p.MaxScore() {
						t.Fatalf("%s: score %d outside 0..%d", p.Name, got.Score, p.MaxScore())
					}
					sum := 0
					for _, f := range got.Factors {
						sum += f.Points
						if f.Points > f.Max {
							t.Fatalf("%s: factor %s %d > max %d", p.Name, f.Name, f.Points, f.Max)
						}
					}
					if sum != got.Score {
						t.Fatalf("%s: factor sum %d != score %d", p.Name, sum, got.Score)
					}
				}
			}
		}
	}
}
