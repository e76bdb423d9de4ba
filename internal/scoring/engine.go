package scoring

import (
	"github.com/fortuna/btts/internal/model"
)

// Engine scores fixtures with one profile. It holds no mutable state.
type Engine struct {
	profile Profile
}

// NewEngine creates an engine for the profile.
func NewEngine(profile Profile) *Engine {
	return &Engine{profile: profile}
}

// Profile returns the engine's profile.
func (e *Engine) Profile() Profile {
	return e.profile
}

// Score combines home and away season statistics into a breakdown. Either
// side may be nil. Each factor is evaluated on its own and contributes zero
// when its statistic is unavailable.
func (e *Engine) Score(home, away *model.TeamSeasonStats) model.ScoreBreakdown {
	p := e.profile

	homeGoals := statOf(home, func(s *model.TeamSeasonStats) model.Stat { return s.GoalsForHome })
	awayGoals := statOf(away, func(s *model.TeamSeasonStats) model.Stat { return s.GoalsForAway })
	homeConceded := statOf(home, func(s *model.TeamSeasonStats) model.Stat { return s.GoalsAgainstHome })
	awayConceded := statOf(away, func(s *model.TeamSeasonStats) model.Stat { return s.GoalsAgainstAway })

	b := model.ScoreBreakdown{
		Profile:         p.Name,
		Max:             p.MaxScore(),
		HomeGoalsAvg:    homeGoals.Rounded(),
		AwayGoalsAvg:    awayGoals.Rounded(),
		HomeConcededAvg: homeConceded.Rounded(),
		AwayConcededAvg: awayConceded.Rounded(),
		HomeFormWins:    -1,
		AwayFormWins:    -1,
		UsesForm:        p.Form != nil,
	}

	b.Factors = []model.Factor{
		tierFactor(FactorHomeScoring, p.HomeScoring, homeGoals),
		tierFactor(FactorAwayScoring, p.AwayScoring, awayGoals),
		tierFactor(FactorHomeConceding, p.HomeConceding, homeConceded),
		tierFactor(FactorAwayConceding, p.AwayConceding, awayConceded),
	}

	if p.Form != nil {
		b.HomeFormWins = formWins(home, p.Form.Window)
		b.AwayFormWins = formWins(away, p.Form.Window)
		b.Factors = append(b.Factors, formFactor(*p.Form, b.HomeFormWins, b.AwayFormWins))
	}

	for _, f := range b.Factors {
		b.Score += f.Points
	}
	return b
}

func statOf(s *model.TeamSeasonStats, get func(*model.TeamSeasonStats) model.Stat) model.Stat {
	if s == nil {
		return model.Unavailable
	}
	return get(s)
}

func tierFactor(name string, tiers Tiers, stat model.Stat) model.Factor {
	f := model.Factor{Name: name, Max: tiers.Max(), Available: stat.Valid}
	if stat.Valid {
		f.Points = tiers.Points(stat.Value)
	}
	return f
}

func formWins(s *model.TeamSeasonStats, window int) int {
	if s == nil {
		return -1
	}
	return s.Form.Wins(window)
}

func formFactor(bonus FormBonus, homeWins, awayWins int) model.Factor {
	f := model.Factor{Name: FactorForm, Max: bonus.FullPoints}
	if homeWins < 0 && awayWins < 0 {
		return f
	}
	f.Available = true
	f.Points = bonus.Points(max(homeWins, 0), max(awayWins, 0))
	return f
}
