package persona

import (
	"strings"
	"testing"
	"time"

	"github.com/dkurilov/persona-service/internal/models"
)

var timelineNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func assignment(persona models.PersonaType, assignedAt time.Time) models.PersonaAssignment {
	return models.PersonaAssignment{
		UserID:     1,
		Persona:    persona,
		AssignedAt: assignedAt,
	}
}

func TestBuildTimelineForwardFill(t *testing.T) {
	history := []models.PersonaAssignment{
		assignment(models.PersonaHighUtilization, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
	}

	entries := BuildTimeline(history, 6, timelineNow)

	// January and February predate the assignment and must be omitted.
	if len(entries) != 4 {
		t.Fatalf("entry count = %d, want 4", len(entries))
	}
	if entries[0].Month != 3 || entries[0].Year != 2025 {
		t.Errorf("first entry = %d/%d, want 3/2025", entries[0].Month, entries[0].Year)
	}
	for _, e := range entries {
		if e.Persona != models.PersonaHighUtilization {
			t.Errorf("month %d/%d persona = %s, want forward-filled %s", e.Month, e.Year, e.Persona, models.PersonaHighUtilization)
		}
	}
}

func TestBuildTimelinePersonaChange(t *testing.T) {
	history := []models.PersonaAssignment{
		assignment(models.PersonaHighUtilization, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
		assignment(models.PersonaSavingsBuilder, time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)),
	}

	entries := BuildTimeline(history, 6, timelineNow)

	if len(entries) != 4 {
		t.Fatalf("entry count = %d, want 4", len(entries))
	}
	want := []models.PersonaType{
		models.PersonaHighUtilization,
		models.PersonaHighUtilization,
		models.PersonaSavingsBuilder,
		models.PersonaSavingsBuilder,
	}
	for i, e := range entries {
		if e.Persona != want[i] {
			t.Errorf("entry %d persona = %s, want %s", i, e.Persona, want[i])
		}
	}
}

func TestBuildTimelineEmptyHistory(t *testing.T) {
	entries := BuildTimeline(nil, 12, timelineNow)
	if entries == nil {
		t.Fatal("timeline must be an empty slice, not nil")
	}
	if len(entries) != 0 {
		t.Fatalf("entry count = %d, want 0", len(entries))
	}
}

func TestBuildTimelineUnorderedHistory(t *testing.T) {
	history := []models.PersonaAssignment{
		assignment(models.PersonaSavingsBuilder, time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)),
		assignment(models.PersonaHighUtilization, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
	}

	entries := BuildTimeline(history, 6, timelineNow)
	if len(entries) != 4 {
		t.Fatalf("entry count = %d, want 4", len(entries))
	}
	if entries[len(entries)-1].Persona != models.PersonaSavingsBuilder {
		t.Errorf("latest month persona = %s, want %s", entries[len(entries)-1].Persona, models.PersonaSavingsBuilder)
	}
}

func TestSummarizeTimelineMaintained(t *testing.T) {
	entries := []models.PersonaTimelineEntry{
		{Month: 3, Year: 2025, Persona: models.PersonaSavingsBuilder},
		{Month: 4, Year: 2025, Persona: models.PersonaSavingsBuilder},
	}
	summary := SummarizeTimeline(entries)
	if !strings.Contains(summary, "maintained") {
		t.Errorf("summary = %q, want a maintained message", summary)
	}
}

func TestSummarizeTimelinePositiveTransition(t *testing.T) {
	entries := []models.PersonaTimelineEntry{
		{Month: 3, Year: 2025, Persona: models.PersonaHighUtilization},
		{Month: 4, Year: 2025, Persona: models.PersonaSavingsBuilder},
	}
	summary := SummarizeTimeline(entries)
	if !strings.Contains(summary, "Great progress") {
		t.Errorf("summary = %q, want a celebratory message", summary)
	}
}

func TestSummarizeTimelineNeutralTransition(t *testing.T) {
	entries := []models.PersonaTimelineEntry{
		{Month: 3, Year: 2025, Persona: models.PersonaSavingsBuilder},
		{Month: 4, Year: 2025, Persona: models.PersonaSubscriptionHeavy},
	}
	summary := SummarizeTimeline(entries)
	if !strings.Contains(summary, "evolved") {
		t.Errorf("summary = %q, want a neutral evolved message", summary)
	}
}

func TestSummarizeTimelineEmpty(t *testing.T) {
	if got := SummarizeTimeline(nil); got != "" {
		t.Errorf("summary of empty timeline = %q, want empty", got)
	}
}
