package scoring

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownProfile is returned by LookupProfile for names it does not know.
var ErrUnknownProfile = errors.New("unknown scoring profile")

// Factor names, shared by both profiles.
const (
	FactorHomeScoring   = "home_scoring"
	FactorAwayScoring   = "away_scoring"
	FactorHomeConceding = "home_conceding"
	FactorAwayConceding = "away_conceding"
	FactorForm          = "form"
)

// Profile names.
const (
	ProfileClassic = "classic"
	ProfileForm    = "form"
)

// Tier awards Points when the statistic is at least Min.
type Tier struct {
	Min    float64
	Points int
}

// Tiers is a step function ordered by descending Min.
type Tiers []Tier

// Points returns the points of the first tier the value reaches, or 0.
func (t Tiers) Points(v float64) int {
	for _, tier := range t {
		if v >= tier.Min {
			return tier.Points
		}
	}
	return 0
}

// Max is the largest award in the step function.
func (t Tiers) Max() int {
	max := 0
	for _, tier := range t {
		if tier.Points > max {
			max = tier.Points
		}
	}
	return max
}

// FormBonus rewards recent wins by both sides.
type FormBonus struct {
	Window        int // number of most recent results inspected
	HomeWins      int // home wins needed for the full bonus
	AwayWins      int // away wins needed for the full bonus
	FullPoints    int
	PartialPoints int // either side has at least one win
}

// Points applies the bonus. Unknown wins are passed as -1.
func (b FormBonus) Points(homeWins, awayWins int) int {
	switch {
	case homeWins >= b.HomeWins && awayWins >= b.AwayWins:
		return b.FullPoints
	case homeWins >= 1 || awayWins >= 1:
		return b.PartialPoints
	default:
		return 0
	}
}

// Profile is a complete set of cutpoints, weights and the qualifying
// threshold. Away scoring is calibrated lower than home scoring.
type Profile struct {
	Name          string
	HomeScoring   Tiers // home team, goals scored at home
	AwayScoring   Tiers // away team, goals scored away
	HomeConceding Tiers // home team, goals conceded at home
	AwayConceding Tiers // away team, goals conceded away
	Form          *FormBonus
	MinScore      int
}

// MaxScore is the sum of per-factor maxima.
func (p Profile) MaxScore() int {
	max := p.HomeScoring.Max() + p.AwayScoring.Max() + p.HomeConceding.Max() + p.AwayConceding.Max()
	if p.Form != nil {
		max += p.Form.FullPoints
	}
	return max
}

// Validate checks the tiers are strictly descending with non-negative points
// and that the threshold is reachable.
func (p Profile) Validate() error {
	for name, tiers := range map[string]Tiers{
		FactorHomeScoring:   p.HomeScoring,
		FactorAwayScoring:   p.AwayScoring,
		FactorHomeConceding: p.HomeConceding,
		FactorAwayConceding: p.AwayConceding,
	} {
		if len(tiers) == 0 {
			return fmt.Errorf("profile %s: %s has no tiers", p.Name, name)
		}
		for i, tier := range tiers {
			if tier.Points < 0 {
				return fmt.Errorf("profile %s: %s tier %d has negative points", p.Name, name, i)
			}
			if i > 0 && tier.Min >= tiers[i-1].Min {
				return fmt.Errorf("profile %s: %s tiers must be strictly descending", p.Name, name)
			}
		}
	}
	if p.Form != nil {
		if p.Form.FullPoints < p.Form.PartialPoints || p.Form.PartialPoints < 0 {
			return fmt.Errorf("profile %s: form bonus points out of order", p.Name)
		}
	}
	if p.MinScore < 1 || p.MinScore > p.MaxScore() {
		return fmt.Errorf("profile %s: min score %d outside 1..%d", p.Name, p.MinScore, p.MaxScore())
	}
	return nil
}

// Classic is four 25-point factors with a qualifying score of 50.
func Classic() Profile {
	return Profile{
		Name:          ProfileClassic,
		HomeScoring:   Tiers{{1.8, 25}, {1.5, 20}, {1.2, 15}, {1.0, 10}},
		AwayScoring:   Tiers{{1.5, 25}, {1.2, 20}, {1.0, 15}, {0.8, 10}},
		HomeConceding: Tiers{{1.5, 25}, {1.2, 20}, {1.0, 15}, {0.8, 10}},
		AwayConceding: Tiers{{1.5, 25}, {1.2, 20}, {1.0, 15}, {0.8, 10}},
		MinScore:      50,
	}
}

// FormWeighted is four 20-point factors plus a 20-point form bonus with a
// qualifying score of 35.
func FormWeighted() Profile {
	return Profile{
		Name:          ProfileForm,
		HomeScoring:   Tiers{{1.8, 20}, {1.5, 16}, {1.2, 12}, {1.0, 8}},
		AwayScoring:   Tiers{{1.5, 20}, {1.2, 16}, {1.0, 12}, {0.8, 8}},
		HomeConceding: Tiers{{1.5, 20}, {1.2, 16}, {1.0, 12}, {0.8, 8}},
		AwayConceding: Tiers{{1.5, 20}, {1.2, 16}, {1.0, 12}, {0.8, 8}},
		Form: &FormBonus{
			Window:        5,
			HomeWins:      2,
			AwayWins:      1,
			FullPoints:    20,
			PartialPoints: 10,
		},
		MinScore: 35,
	}
}

// Profiles returns every built-in profile keyed by name.
func Profiles() map[string]Profile {
	return map[string]Profile{
		ProfileClassic: Classic(),
		ProfileForm:    FormWeighted(),
	}
}

// ProfileNames lists the built-in profile names in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, 2)
	for name := range Profiles() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupProfile returns the named built-in profile.
func LookupProfile(name string) (Profile, error) {
	p, ok := Profiles()[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownProfile, name, ProfileNames())
	}
	return p, nil
}
