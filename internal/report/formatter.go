package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/btts/internal/model"
)

const (
	separator    = "━━━━━━━━━━━━━━━━━━━━━━"
	kickoffClock = "03:04 PM"
	dateLayout   = "Monday, January 02, 2006"
)

// Config controls presentation only.
type Config struct {
	Location  *time.Location
	ZoneLabel string
	Title     string
}

// DefaultConfig renders times in West Africa Time.
func DefaultConfig() Config {
	return Config{
		Location:  time.FixedZone("WAT", int(time.Hour/time.Second)),
		ZoneLabel: "WAT",
		Title:     "BTTS DAILY PREDICTIONS",
	}
}

// Summary carries the run counts shown in the report header.
type Summary struct {
	Candidates int
	Scored     int
	Qualified  int
	Profile    string
}

// Formatter renders Telegram HTML payloads.
type Formatter struct {
	cfg Config
}

// NewFormatter fills unset fields from DefaultConfig.
func NewFormatter(cfg Config) *Formatter {
	def := DefaultConfig()
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.ZoneLabel == "" {
		cfg.ZoneLabel = cfg.Location.String()
	}
	if cfg.Title == "" {
		cfg.Title = def.Title
	}
	return &Formatter{cfg: cfg}
}

// Kickoff renders a kickoff as "03:04 PM WAT", or "TBD" when unknown.
func (f *Formatter) Kickoff(t time.Time) string {
	if t.IsZero() {
		return "TBD"
	}
	return t.In(f.cfg.Location).Format(kickoffClock) + " " + f.cfg.ZoneLabel
}

// Date renders the run date in the display zone.
func (f *Formatter) Date(t time.Time) string {
	return t.In(f.cfg.Location).Format(dateLayout)
}

// NoFixtures is sent when no fixture survived selection.
func (f *Formatter) NoFixtures(date time.Time) string {
	return fmt.Sprintf("❌ No upcoming fixtures found in target leagues for %s.\n\nTry again tomorrow! 🍀", f.Date(date))
}

// SourceUnavailable is sent when every fixture query failed, so nothing is
// known about the day's matches.
func (f *Formatter) SourceUnavailable(date time.Time) string {
	return fmt.Sprintf("⚠️ Fixture source unavailable for %s. No picks could be prepared.\n\nWe'll be back tomorrow! 🍀", f.Date(date))
}

// NoPicks is sent when fixtures were scored but none qualified.
func (f *Formatter) NoPicks(date time.Time, sum Summary) string {
	return fmt.Sprintf("❌ No matches met the minimum BTTS confidence threshold for %s.\n"+
		"📊 %d fixtures analysed, 0 qualified.\n\nTry again tomorrow! 🍀", f.Date(date), sum.Scored)
}

// Picks renders the daily picks. An empty list renders NoPicks.
func (f *Formatter) Picks(date time.Time, picks []model.Pick, sum Summary) string {
	if len(picks) == 0 {
		return f.NoPicks(date, sum)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏆 <b>%s</b> 🏆\n\n", html.EscapeString(f.cfg.Title))
	fmt.Fprintf(&b, "📅 %s\n", f.Date(date))
	fmt.Fprintf(&b, "🔎 %d fixtures analysed, %d qualified\n", sum.Scored, sum.Qualified)
	if sum.Profile != "" {
		fmt.Fprintf(&b, "🧮 Model: %s\n", html.EscapeString(sum.Profile))
	}
	b.WriteString("\n" + separator + "\n")

	for _, p := range picks {
		f.writePick(&b, p)
	}

	b.WriteString("\n💡 <b>BETTING ADVICE:</b>\n")
	if len(picks) > 1 {
		b.WriteString("✅ Combine in a double for better odds\n")
		b.WriteString("✅ Expected combined odds: 1.96-3.24\n")
	}
	b.WriteString("✅ Always verify latest odds before betting\n")
	b.WriteString("✅ Bet responsibly!\n\n")
	b.WriteString("🍀 <b>Good luck!</b> 🍀\n")
	return b.String()
}

func (f *Formatter) writePick(b *strings.Builder, p model.Pick) {
	bd := p.Breakdown
	fx := p.Fixture

	fmt.Fprintf(b, "\n🎯 <b>PICK #%d</b>\n", p.Rank)
	fmt.Fprintf(b, "⚽️ <b>%s vs %s</b>\n", html.EscapeString(fx.Home.Name), html.EscapeString(fx.Away.Name))
	fmt.Fprintf(b, "🏆 League: %s\n", html.EscapeString(fx.Competition.DisplayName()))
	fmt.Fprintf(b, "⏰ Kickoff: %s\n", f.Kickoff(fx.Kickoff))
	fmt.Fprintf(b, "📊 Confidence: %d/%d\n", bd.Score, bd.Max)
	b.WriteString("💰 Bet: <b>BTTS-YES</b>\n")
	b.WriteString("📈 Expected Odds: 1.40-1.80\n\n")
	b.WriteString("📉 Stats:\n")
	fmt.Fprintf(b, "  • Home goals avg: %s\n", bd.HomeGoalsAvg.Display())
	fmt.Fprintf(b, "  • Away goals avg: %s\n", bd.AwayGoalsAvg.Display())
	fmt.Fprintf(b, "  • Home concedes: %s\n", bd.HomeConcededAvg.Display())
	fmt.Fprintf(b, "  • Away concedes: %s\n", bd.AwayConcededAvg.Display())
	if bd.UsesForm {
		fmt.Fprintf(b, "  • Recent wins: home %s, away %s\n", wins(bd.HomeFormWins), wins(bd.AwayFormWins))
	}
	b.WriteString("\n" + separator + "\n")
}

func wins(n int) string {
	if n < 0 {
		return "N/A"
	}
	return fmt.Sprint(n)
}

// PlainText strips markup and decodes entities from a rendered payload.
func PlainText(payload string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("parse payload: %w", err)
	}
	return doc.Text(), nil
}
