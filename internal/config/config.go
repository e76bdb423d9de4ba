// Package config loads the job's settings from the environment once at
// startup.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/fortuna/btts/internal/ingest/apifootball"
	"github.com/fortuna/btts/internal/model"
	"github.com/fortuna/btts/internal/notify/telegram"
	"github.com/fortuna/btts/internal/picks"
	"github.com/fortuna/btts/internal/report"
	"github.com/fortuna/btts/internal/scoring"
	"github.com/fortuna/btts/internal/selector"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

// Config is read once and never mutated afterwards.
type Config struct {
	Env string `env:"APP_ENV" env-default:"prod" env-description:"dev, prod or local; selects log level and format"`

	FootballAPIKey    string        `env:"FOOTBALL_API_KEY" env-description:"API-Football key"`
	FootballAPIBase   string        `env:"FOOTBALL_API_BASE" env-default:"https://v3.football.api-sports.io"`
	FootballTimeout   time.Duration `env:"FOOTBALL_API_TIMEOUT" env-default:"10s"`
	FootballCallDelay time.Duration `env:"FOOTBALL_API_CALL_DELAY" env-default:"300ms"`
	Season            int           `env:"SEASON" env-default:"0" env-description:"0 derives the season from the run date"`

	TelegramToken    string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `env:"TELEGRAM_CHAT_ID" env-description:"numeric chat ID or @channel"`
	TelegramEndpoint string `env:"TELEGRAM_API_ENDPOINT" env-description:"bot API URL pattern, defaults to api.telegram.org"`
	DryRun           bool   `env:"DRY_RUN" env-default:"false" env-description:"print the report instead of sending it"`

	ScoringProfile        string        `env:"SCORING_PROFILE" env-default:"classic"`
	MinScore              int           `env:"MIN_SCORE" env-default:"0" env-description:"0 uses the profile default"`
	MaxPicks              int           `env:"MAX_PICKS" env-default:"2"`
	SameCompetitionMargin int           `env:"SAME_COMPETITION_MARGIN" env-default:"10"`
	MinKickoffGap         time.Duration `env:"MIN_KICKOFF_GAP" env-default:"2h"`

	WindowMode       string        `env:"WINDOW_MODE" env-default:"daytime"`
	DaytimeStartHour int           `env:"DAYTIME_START_HOUR" env-default:"12"`
	DaytimeEndHour   int           `env:"DAYTIME_END_HOUR" env-default:"23"`
	RollingHorizon   time.Duration `env:"ROLLING_HORIZON" env-default:"48h"`
	MaxFixtures      int           `env:"MAX_FIXTURES" env-default:"50"`
	CallBudget       int           `env:"CALL_BUDGET" env-default:"100"`
	DownselectMode   string        `env:"DOWNSELECT_MODE" env-default:"sample"`
	SampleSeed       int64         `env:"SAMPLE_SEED" env-default:"0"`

	DisplayUTCOffset time.Duration `env:"DISPLAY_UTC_OFFSET" env-default:"1h"`
	DisplayZoneLabel string        `env:"DISPLAY_ZONE_LABEL" env-default:"WAT"`

	RedisURL       string        `env:"REDIS_URL" env-description:"enables the statistics cache and picks stream"`
	StatsCacheTTL  time.Duration `env:"STATS_CACHE_TTL" env-default:"12h" env-description:"upper bound; entries never outlive the UTC date"`
	PicksStream    string        `env:"PICKS_STREAM" env-default:"picks.btts"`
	CatalogDSN     string        `env:"CATALOG_DSN" env-description:"postgres:// or sqlite:// catalog; empty uses the built-in table"`
	CatalogEnable  []int         `env:"CATALOG_ENABLE" env-separator:"," env-description:"competition IDs to mark active in the catalog"`
	CatalogDisable []int         `env:"CATALOG_DISABLE" env-separator:"," env-description:"competition IDs to mark inactive in the catalog"`
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Usage describes every variable, for --help style output.
func Usage() string {
	var cfg Config
	desc, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return desc
}

// Validate checks required settings and cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvDev, EnvProd, EnvLocal:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be %q, %q or %q, got %q", EnvDev, EnvProd, EnvLocal, c.Env))
	}
	if c.FootballAPIKey == "" {
		errs = append(errs, errors.New("FOOTBALL_API_KEY is required"))
	}
	if !c.DryRun {
		if c.TelegramToken == "" {
			errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required unless DRY_RUN=true"))
		}
		if c.TelegramChatID == "" {
			errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required unless DRY_RUN=true"))
		}
	}
	if c.FootballCallDelay < 0 {
		errs = append(errs, errors.New("FOOTBALL_API_CALL_DELAY must not be negative"))
	}
	if c.Season < 0 {
		errs = append(errs, errors.New("SEASON must not be negative"))
	}
	if c.MinScore < 0 {
		errs = append(errs, errors.New("MIN_SCORE must not be negative"))
	}

	disabled := make(map[int]bool, len(c.CatalogDisable))
	for _, id := range c.CatalogDisable {
		disabled[id] = true
	}
	for _, id := range append(append([]int(nil), c.CatalogEnable...), c.CatalogDisable...) {
		if id <= 0 {
			errs = append(errs, fmt.Errorf("catalog competition IDs must be positive, got %d", id))
		}
	}
	for _, id := range c.CatalogEnable {
		if disabled[id] {
			errs = append(errs, fmt.Errorf("competition %d is both enabled and disabled", id))
		}
	}

	profile, err := scoring.LookupProfile(c.ScoringProfile)
	if err != nil {
		errs = append(errs, err)
	} else if c.MinScore > profile.MaxScore() {
		errs = append(errs, fmt.Errorf("MIN_SCORE %d exceeds the %s profile maximum %d", c.MinScore, profile.Name, profile.MaxScore()))
	}

	if err := c.PicksConfig().Validate(); err != nil {
		errs = append(errs, err)
	}

	sel := c.SelectorConfig(map[int]model.Competition{0: {}})
	if err := sel.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Profile returns the selected scoring profile with MIN_SCORE applied.
func (c *Config) Profile() scoring.Profile {
	p, err := scoring.LookupProfile(c.ScoringProfile)
	if err != nil {
		p = scoring.Classic()
	}
	if c.MinScore > 0 {
		p.MinScore = c.MinScore
	}
	return p
}

// SeasonFor returns SEASON, or derives it from now: July or later is the
// current year's season, earlier months belong to the previous year's.
func (c *Config) SeasonFor(now time.Time) int {
	if c.Season > 0 {
		return c.Season
	}
	now = now.UTC()
	if now.Month() >= time.July {
		return now.Year()
	}
	return now.Year() - 1
}

// DisplayLocation is the zone kickoffs and windows are expressed in.
func (c *Config) DisplayLocation() *time.Location {
	return time.FixedZone(c.DisplayZoneLabel, int(c.DisplayUTCOffset/time.Second))
}

// ClientConfig configures the API-Football client.
func (c *Config) ClientConfig() apifootball.Config {
	return apifootball.Config{
		BaseURL:   c.FootballAPIBase,
		APIKey:    c.FootballAPIKey,
		Timeout:   c.FootballTimeout,
		CallDelay: c.FootballCallDelay,
	}
}

// TelegramConfig configures the Telegram notifier.
func (c *Config) TelegramConfig() telegram.Config {
	return telegram.Config{Token: c.TelegramToken, ChatID: c.TelegramChatID, Endpoint: c.TelegramEndpoint}
}

// SelectorConfig configures the fixture selector for the given competitions.
func (c *Config) SelectorConfig(competitions map[int]model.Competition) selector.Config {
	return selector.Config{
		Competitions:     competitions,
		Window:           selector.Window(c.WindowMode),
		DaytimeStartHour: c.DaytimeStartHour,
		DaytimeEndHour:   c.DaytimeEndHour,
		RollingHorizon:   c.RollingHorizon,
		Location:         c.DisplayLocation(),
		MaxFixtures:      c.MaxFixtures,
		CallBudget:       c.CallBudget,
		Downselect:       selector.Downselect(c.DownselectMode),
		Seed:             c.SampleSeed,
	}
}

// PicksConfig configures the pick selector.
func (c *Config) PicksConfig() picks.Config {
	return picks.Config{
		MinScore:              c.Profile().MinScore,
		MaxPicks:              c.MaxPicks,
		SameCompetitionMargin: c.SameCompetitionMargin,
		MinKickoffGap:         c.MinKickoffGap,
	}
}

// ReportConfig configures the report formatter.
func (c *Config) ReportConfig() report.Config {
	return report.Config{
		Location:  c.DisplayLocation(),
		ZoneLabel: c.DisplayZoneLabel,
	}
}
