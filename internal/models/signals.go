package models

// InterestCharges summarizes interest charged to the user inside the window.
type InterestCharges struct {
	Total          float64 `json:"total"`
	MonthlyAverage float64 `json:"monthly_average"`
}

// SignalBundle is the set of behavioral signals computed over a trailing
// window. Every signal is computed independently; when the underlying data
// is missing the signal holds its zero value and the matching presence flag
// is false, so consumers can tell "measured zero" from "not measurable".
type SignalBundle struct {
	WindowDays int `json:"window_days"`

	// Credit signals.
	Utilization        float64         `json:"utilization"`
	MaxCardUtilization float64         `json:"max_card_utilization"`
	IsHighUtilization  bool            `json:"is_high_utilization"`
	HasCreditAccounts  bool            `json:"has_credit_accounts"`
	InterestCharges    InterestCharges `json:"interest_charges"`
	MinimumPaymentOnly bool            `json:"minimum_payment_only"`
	IsOverdue          bool            `json:"is_overdue"`

	// Cash flow signals, normalized to monthly values.
	MonthlyIncome    float64 `json:"monthly_income"`
	MonthlyOutflow   float64 `json:"monthly_outflow"`
	NetMonthlyInflow float64 `json:"net_monthly_inflow"`
	CashFlowBuffer   float64 `json:"cash_flow_buffer"`
	SavingsRate      float64 `json:"savings_rate"`

	// Savings signals.
	EmergencyFundCoverage float64 `json:"emergency_fund_coverage"`
	SavingsGrowthRate     float64 `json:"savings_growth_rate"`
	HasSavingsAccounts    bool    `json:"has_savings_accounts"`

	// Spending composition signals.
	MonthlyRecurringSpend     float64 `json:"monthly_recurring_spend"`
	ActiveSubscriptions       int     `json:"active_subscriptions"`
	SubscriptionShare         float64 `json:"subscription_share"`
	DiscretionarySpendPercent float64 `json:"discretionary_spend_percent"`

	// Income stability signals.
	MedianPayGap     float64 `json:"median_pay_gap"`
	PaymentFrequency string  `json:"payment_frequency"`
	HasIncomeData    bool    `json:"has_income_data"`
}
