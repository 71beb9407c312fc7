package usecase

import (
	"strings"

	"github.com/matchkick/prediction-league/internal/domain/team"
)

// TeamMatcher resolves a fixture-feed team reference to a local team
// id. Implementations must be safe for concurrent use.
type TeamMatcher interface {
	MatchTeam(name string, teamRefID int64) (string, bool)
}

// NameMatcher matches by external ref id first, then by normalized
// name or short name, then by substring containment in either
// direction. Ambiguous or unknown names stay unmatched.
type NameMatcher struct {
	byRefID map[int64]string
	byName  map[string]string
}

func NewNameMatcher(teams []team.Team) *NameMatcher {
	out := &NameMatcher{
		byRefID: make(map[int64]string, len(teams)),
		byName:  make(map[string]string, len(teams)*2),
	}

	for _, item := range teams {
		if item.TeamRefID > 0 {
			out.byRefID[item.TeamRefID] = item.ID
		}

		if normalized := normalizeTeamName(item.Name); normalized != "" {
			out.byName[normalized] = item.ID
		}
		if normalized := normalizeTeamName(item.Short); normalized != "" {
			out.byName[normalized] = item.ID
		}
	}

	return out
}

func (m *NameMatcher) MatchTeam(name string, teamRefID int64) (string, bool) {
	if teamRefID > 0 {
		if teamID := strings.TrimSpace(m.byRefID[teamRefID]); teamID != "" {
			return teamID, true
		}
	}

	normalized := normalizeTeamName(name)
	if normalized == "" {
		return "", false
	}
	if teamID := strings.TrimSpace(m.byName[normalized]); teamID != "" {
		return teamID, true
	}

	for key, teamID := range m.byName {
		if key == "" {
			continue
		}
		if strings.Contains(normalized, key) || strings.Contains(key, normalized) {
			return teamID, true
		}
	}

	return "", false
}

func normalizeTeamName(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}

	var builder strings.Builder
	lastDash := false
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			builder.WriteByte('-')
			lastDash = true
		}
	}

	return strings.Trim(builder.String(), "-")
}
