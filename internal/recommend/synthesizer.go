package recommend

import (
	"fmt"
	"sort"

	"github.com/dkurilov/persona-service/internal/models"
)

// RefinanceMargin is how far above the benchmark APR a liability must sit
// before a refinance recommendation is produced (percentage points).
const RefinanceMargin = 4.0

// Options carries context the bundle does not: the market benchmark APR and
// the user's highest liability APR. A zero BenchmarkAPR disables the
// refinance check.
type Options struct {
	BenchmarkAPR float64
	HighestAPR   float64
}

// anchors are the guaranteed recommendation per persona. Synthesize always
// includes the primary persona's anchor, whatever the signals say.
var anchors = map[models.PersonaType]models.Recommendation{
	models.PersonaHighUtilization: {
		Title:       "Pay down high-interest balances",
		Description: "Direct extra payments at your highest-APR card to cut interest charges.",
		Priority:    models.PriorityHigh,
	},
	models.PersonaVariableIncome: {
		Title:       "Build a cash flow buffer",
		Description: "Set aside income from strong months to cover the gaps between paychecks.",
		Priority:    models.PriorityHigh,
	},
	models.PersonaSubscriptionHeavy: {
		Title:       "Audit your subscriptions",
		Description: "Review every recurring charge and cancel the ones you no longer use.",
		Priority:    models.PriorityMedium,
	},
	models.PersonaSavingsBuilder: {
		Title:       "Automate your savings",
		Description: "Schedule automatic transfers so your savings keep growing without effort.",
		Priority:    models.PriorityMedium,
	},
	models.PersonaLifestyleCreep: {
		Title:       "Set a monthly savings target",
		Description: "Commit a fixed share of your income to savings before discretionary spending.",
		Priority:    models.PriorityMedium,
	},
}

// genericItems are returned when the user has no persona assignment yet.
var genericItems = []models.Recommendation{
	{
		Title:       "Link your financial accounts",
		Description: "Connect more accounts so we can build a fuller picture of your finances.",
		Priority:    models.PriorityMedium,
	},
	{
		Title:       "Build an emergency fund",
		Description: "Aim for three months of essential expenses in a dedicated savings account.",
		Priority:    models.PriorityMedium,
	},
	{
		Title:       "Track your monthly spending",
		Description: "Categorize your transactions to see where your money goes each month.",
		Priority:    models.PriorityLow,
	},
}

// Synthesize maps a persona assignment and its signals to an ordered list of
// actionable items. Items are unique by title and sorted by priority
// descending; generation order breaks ties. A nil assignment yields the
// generic list.
func Synthesize(assignment *models.PersonaAssignment, bundle models.SignalBundle, opts Options) []models.Recommendation {
	if assignment == nil {
		items := make([]models.Recommendation, len(genericItems))
		copy(items, genericItems)
		return items
	}

	var items []models.Recommendation
	if anchor, ok := anchors[assignment.Persona]; ok {
		items = append(items, anchor)
	}
	items = append(items, fromSignals(bundle, opts)...)

	items = dedupe(items)
	sort.SliceStable(items, func(i, j int) bool {
		return priorityRank(items[i].Priority) > priorityRank(items[j].Priority)
	})
	return items
}

func fromSignals(b models.SignalBundle, opts Options) []models.Recommendation {
	var items []models.Recommendation
	if b.IsOverdue {
		items = append(items, models.Recommendation{
			Title:       "Bring overdue accounts current",
			Description: "An account is past due. Paying it brings penalties and credit damage to a stop.",
			Priority:    models.PriorityHigh,
		})
	}
	if b.MinimumPaymentOnly {
		items = append(items, models.Recommendation{
			Title:       "Pay more than the minimum",
			Description: "Minimum payments mostly cover interest. Even a small extra amount shortens the payoff.",
			Priority:    models.PriorityHigh,
		})
	}
	if b.IsHighUtilization {
		items = append(items, anchors[models.PersonaHighUtilization])
	}
	if b.SubscriptionShare > 10 {
		items = append(items, anchors[models.PersonaSubscriptionHeavy])
	}
	if b.HasSavingsAccounts && b.EmergencyFundCoverage < 3 {
		items = append(items, models.Recommendation{
			Title:       "Grow your emergency fund",
			Description: "Your savings cover less than three months of essential expenses.",
			Priority:    models.PriorityMedium,
		})
	}
	if opts.BenchmarkAPR > 0 && opts.HighestAPR > opts.BenchmarkAPR+RefinanceMargin {
		items = append(items, models.Recommendation{
			Title:       "Explore refinancing options",
			Description: fmt.Sprintf("Your highest APR is %.1f%%, well above the %.1f%% market benchmark.", opts.HighestAPR, opts.BenchmarkAPR),
			Priority:    models.PriorityMedium,
		})
	}
	if b.DiscretionarySpendPercent > 30 {
		items = append(items, models.Recommendation{
			Title:       "Review discretionary spending",
			Description: "Dining, entertainment and shopping take a large share of your outflow.",
			Priority:    models.PriorityLow,
		})
	}
	return items
}

func dedupe(items []models.Recommendation) []models.Recommendation {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if seen[item.Title] {
			continue
		}
		seen[item.Title] = true
		out = append(out, item)
	}
	return out
}

func priorityRank(p string) int {
	switch p {
	case models.PriorityHigh:
		return 3
	case models.PriorityMedium:
		return 2
	case models.PriorityLow:
		return 1
	default:
		return 0
	}
}
