package models

import "time"

// PersonaType is an enumerated behavioral classification of a user's
// financial habits.
type PersonaType string

const (
	PersonaHighUtilization   PersonaType = "high_utilization"
	PersonaVariableIncome    PersonaType = "variable_income"
	PersonaSubscriptionHeavy PersonaType = "subscription_heavy"
	PersonaSavingsBuilder    PersonaType = "savings_builder"
	PersonaLifestyleCreep    PersonaType = "lifestyle_creep"
)

// SecondaryPersona is a non-primary rule-set match with its confidence.
type SecondaryPersona struct {
	Persona    PersonaType `json:"persona"`
	Confidence float64     `json:"confidence"`
}

// PersonaAssignment is one classification run for a user. Assignments are
// append-only: the row with the latest AssignedAt is the user's current
// persona, and the full history backs the timeline.
type PersonaAssignment struct {
	ID          string             `json:"id"`
	UserID      int64              `json:"user_id"`
	Persona     PersonaType        `json:"persona"`
	WindowDays  int                `json:"window_days"`
	Confidence  float64            `json:"confidence"`
	CriteriaMet []string           `json:"criteria_met"`
	Secondary   []SecondaryPersona `json:"secondary"`
	Signals     SignalBundle       `json:"signals"`
	AssignedAt  time.Time          `json:"assigned_at"`
}

// PersonaTimelineEntry is a derived month-by-month persona projection.
type PersonaTimelineEntry struct {
	Month   int         `json:"month"`
	Year    int         `json:"year"`
	Persona PersonaType `json:"persona"`
}
