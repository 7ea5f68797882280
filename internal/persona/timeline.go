package persona

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dkurilov/persona-service/internal/models"
)

// DefaultTimelineMonths is the standard lookback for timeline requests.
const DefaultTimelineMonths = 12

// positiveTransitions whitelists persona changes worth celebrating.
var positiveTransitions = map[models.PersonaType]map[models.PersonaType]bool{
	models.PersonaHighUtilization: {
		models.PersonaSavingsBuilder: true,
	},
	models.PersonaVariableIncome: {
		models.PersonaSavingsBuilder: true,
	},
	models.PersonaSubscriptionHeavy: {
		models.PersonaSavingsBuilder: true,
	},
	models.PersonaLifestyleCreep: {
		models.PersonaSavingsBuilder: true,
	},
}

// BuildTimeline projects the assignment history onto the last `months`
// calendar months, forward-filling each month with the persona active at
// that month's end. Months that predate the first assignment are omitted.
func BuildTimeline(history []models.PersonaAssignment, months int, now time.Time) []models.PersonaTimelineEntry {
	if months <= 0 {
		months = DefaultTimelineMonths
	}
	if len(history) == 0 {
		return []models.PersonaTimelineEntry{}
	}

	ordered := make([]models.PersonaAssignment, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].AssignedAt.Before(ordered[j].AssignedAt)
	})

	entries := make([]models.PersonaTimelineEntry, 0, months)
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for offset := months - 1; offset >= 0; offset-- {
		monthStart := currentMonth.AddDate(0, -offset, 0)
		monthEnd := monthStart.AddDate(0, 1, 0)

		var active *models.PersonaAssignment
		for i := range ordered {
			if ordered[i].AssignedAt.Before(monthEnd) {
				active = &ordered[i]
			} else {
				break
			}
		}
		if active == nil {
			continue
		}
		entries = append(entries, models.PersonaTimelineEntry{
			Month:   int(monthStart.Month()),
			Year:    monthStart.Year(),
			Persona: active.Persona,
		})
	}
	return entries
}

// SummarizeTimeline derives a narrative message by comparing the first and
// last entries of a timeline.
func SummarizeTimeline(entries []models.PersonaTimelineEntry) string {
	if len(entries) == 0 {
		return ""
	}
	first := entries[0].Persona
	last := entries[len(entries)-1].Persona
	if first == last {
		return fmt.Sprintf("You've maintained your %s profile over this period.", personaLabel(first))
	}
	if positiveTransitions[first][last] {
		return fmt.Sprintf("Great progress: you've moved from %s to %s.", personaLabel(first), personaLabel(last))
	}
	return fmt.Sprintf("Your financial profile has evolved from %s to %s.", personaLabel(first), personaLabel(last))
}

func personaLabel(p models.PersonaType) string {
	return strings.ReplaceAll(string(p), "_", " ")
}
