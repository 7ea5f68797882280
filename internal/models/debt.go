package models

// Payoff strategy tags.
const (
	StrategyAvalanche = "avalanche"
	StrategySnowball  = "snowball"
)

// DebtAccount is the simulator's view of one open debt.
type DebtAccount struct {
	AccountID      int64   `json:"account_id"`
	Name           string  `json:"name"`
	Balance        float64 `json:"balance"`
	APR            float64 `json:"apr"`
	MinimumPayment float64 `json:"minimum_payment"`
}

// DebtPayment records one debt's payment and remaining balance for a month.
type DebtPayment struct {
	AccountID        int64   `json:"account_id"`
	Name             string  `json:"name"`
	Payment          float64 `json:"payment"`
	RemainingBalance float64 `json:"remaining_balance"`
}

// PlanMonth is one simulated month of a payoff plan.
type PlanMonth struct {
	Month     int           `json:"month"`
	Payments  []DebtPayment `json:"payments"`
	TotalPaid float64       `json:"total_paid"`
}

// PayoffPlan is the simulated outcome of one payoff strategy.
type PayoffPlan struct {
	Strategy          string      `json:"strategy"`
	MonthlyTimeline   []PlanMonth `json:"monthly_timeline"`
	TotalPaid         float64     `json:"total_paid"`
	TotalInterestPaid float64     `json:"total_interest_paid"`
	InterestSaved     float64     `json:"interest_saved"`
	PayoffMonths      int         `json:"payoff_months"`
	MonthlySurplus    float64     `json:"monthly_surplus"`
}

// PlanComparison holds both strategies simulated from the same inputs.
type PlanComparison struct {
	Avalanche PayoffPlan `json:"avalanche"`
	Snowball  PayoffPlan `json:"snowball"`
}
