package apifootball

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/fortuna/btts/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Upstream status short codes.
var statusCodes = map[string]model.Status{
	"NS":   model.StatusNotStarted,
	"1H":   model.StatusInProgress,
	"HT":   model.StatusInProgress,
	"2H":   model.StatusInProgress,
	"ET":   model.StatusInProgress,
	"BT":   model.StatusInProgress,
	"P":    model.StatusInProgress,
	"SUSP": model.StatusInProgress,
	"INT":  model.StatusInProgress,
	"LIVE": model.StatusInProgress,
	"FT":   model.StatusFinished,
	"AET":  model.StatusFinished,
	"PEN":  model.StatusFinished,
}

// ParseStatus maps an upstream short status code. "TBD" (time to be
// defined), postponed, cancelled, abandoned and awarded fixtures map to
// StatusOther.
func ParseStatus(code string) model.Status {
	if s, ok := statusCodes[code]; ok {
		return s
	}
	return model.StatusOther
}

// ParseKickoff parses the fixture date. Unparseable dates give the zero time.
func ParseKickoff(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02T15:04Z07:00"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// ParseErrors extracts the in-band errors field, which upstream sends either
// as an array (empty on success) or as an object keyed by parameter.
func ParseErrors(body []byte) (map[string]string, error) {
	var env struct {
		Errors jsoniter.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	raw := bytes.TrimSpace(env.Errors)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var list []any
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode errors: %w", err)
		}
		if len(list) == 0 {
			return nil, nil
		}
		out := make(map[string]string, len(list))
		for i, item := range list {
			out[strconv.Itoa(i)] = fmt.Sprint(item)
		}
		return out, nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("decode errors: %w", err)
		}
		if len(obj) == 0 {
			return nil, nil
		}
		out := make(map[string]string, len(obj))
		for k, v := range obj {
			out[k] = fmt.Sprint(v)
		}
		return out, nil
	default:
		return map[string]string{"error": string(raw)}, nil
	}
}

// ParseFixtures converts a /fixtures response body. Entries missing an id,
// a league id or either team id are skipped.
func ParseFixtures(body []byte) ([]model.Fixture, error) {
	var env fixturesEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	fixtures := make([]model.Fixture, 0, len(env.Response))
	for _, item := range env.Response {
		if item.Fixture.ID == 0 || item.League.ID == 0 || item.Teams.Home.ID == 0 || item.Teams.Away.ID == 0 {
			continue
		}
		fixtures = append(fixtures, model.Fixture{
			ID:   item.Fixture.ID,
			Home: model.Team{ID: item.Teams.Home.ID, Name: item.Teams.Home.Name},
			Away: model.Team{ID: item.Teams.Away.ID, Name: item.Teams.Away.Name},
			Competition: model.Competition{
				ID:      item.League.ID,
				Name:    item.League.Name,
				Country: item.League.Country,
			},
			Kickoff:    ParseKickoff(item.Fixture.Date),
			Status:     ParseStatus(item.Fixture.Status.Short),
			StatusCode: item.Fixture.Status.Short,
		})
	}
	return fixtures, nil
}

// ParseTeamStatistics converts a /teams/statistics response body. Upstream
// answers "no data" with an empty array or null response, which yields nil.
func ParseTeamStatistics(body []byte) (*model.TeamSeasonStats, error) {
	var env struct {
		Response jsoniter.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}

	raw := bytes.TrimSpace(env.Response)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}

	var resp statisticsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode statistics response: %w", err)
	}

	return &model.TeamSeasonStats{
		GoalsForHome:     parseAverage(resp.Goals.For.Average.Home),
		GoalsForAway:     parseAverage(resp.Goals.For.Average.Away),
		GoalsAgainstHome: parseAverage(resp.Goals.Against.Average.Home),
		GoalsAgainstAway: parseAverage(resp.Goals.Against.Average.Away),
		Form:             parseForm(resp.Form),
	}, nil
}

// parseAverage accepts a JSON string ("1.5") or number (1.5). Anything else
// is unavailable.
func parseAverage(raw jsoniter.RawMessage) model.Stat {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return model.Unavailable
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return model.Unavailable
		}
		return model.ParseStat(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return model.ParseStat(string(raw))
	default:
		return model.Unavailable
	}
}

func parseForm(raw jsoniter.RawMessage) model.Form {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Form{}
	}
	return model.ParseForm(s)
}
