package persona

import "github.com/dkurilov/persona-service/internal/models"

// Thresholds collects every tunable cutoff used by the rule-sets. Values
// are percent unless noted.
type Thresholds struct {
	HighUtilization        float64 // aggregate utilization at or above this matches high_utilization
	CardUtilizationGate    float64 // any single card at or above this suppresses savings_builder
	SavingsGrowthRate      float64 // percent per month
	NetMonthlyInflow       float64 // dollars per month
	LowSavingsRate         float64
	HighDiscretionaryShare float64
	HighMonthlyIncome      float64 // dollars per month
	CashFlowBufferMonths   float64
	SubscriptionShare      float64
	SubscriptionCount      int
	CriterionWeight        float64 // confidence per sub-criterion in high_utilization
	OverdueBoost           float64 // confidence boost for the overdue flag
}

// DefaultThresholds returns the production cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighUtilization:        50,
		CardUtilizationGate:    30,
		SavingsGrowthRate:      2,
		NetMonthlyInflow:       200,
		LowSavingsRate:         10,
		HighDiscretionaryShare: 30,
		HighMonthlyIncome:      7000,
		CashFlowBufferMonths:   2,
		SubscriptionShare:      10,
		SubscriptionCount:      5,
		CriterionWeight:        0.25,
		OverdueBoost:           0.15,
	}
}

// RuleResult is the outcome of evaluating one rule-set against a bundle.
type RuleResult struct {
	Match       bool
	Confidence  float64
	CriteriaMet []string
}

type rule struct {
	persona  models.PersonaType
	evaluate func(models.SignalBundle, Thresholds) RuleResult
}

// ruleSet is the fixed evaluation order; the first match becomes primary.
var ruleSet = []rule{
	{models.PersonaHighUtilization, evalHighUtilization},
	{models.PersonaVariableIncome, evalVariableIncome},
	{models.PersonaSubscriptionHeavy, evalSubscriptionHeavy},
	{models.PersonaSavingsBuilder, evalSavingsBuilder},
	{models.PersonaLifestyleCreep, evalLifestyleCreep},
}

func evalHighUtilization(b models.SignalBundle, t Thresholds) RuleResult {
	var r RuleResult
	if b.HasCreditAccounts && b.Utilization >= t.HighUtilization {
		r.CriteriaMet = append(r.CriteriaMet, "high_utilization")
	}
	if b.InterestCharges.MonthlyAverage > 0 {
		r.CriteriaMet = append(r.CriteriaMet, "interest_charges")
	}
	if b.MinimumPaymentOnly {
		r.CriteriaMet = append(r.CriteriaMet, "minimum_payment_only")
	}
	if b.IsOverdue {
		r.CriteriaMet = append(r.CriteriaMet, "overdue")
	}
	if len(r.CriteriaMet) == 0 {
		return r
	}
	r.Match = true
	r.Confidence = t.CriterionWeight * float64(len(r.CriteriaMet))
	if b.IsOverdue {
		r.Confidence += t.OverdueBoost
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
	return r
}

func evalVariableIncome(b models.SignalBundle, t Thresholds) RuleResult {
	var r RuleResult
	if b.HasIncomeData && b.PaymentFrequency == "irregular" {
		r.CriteriaMet = append(r.CriteriaMet, "irregular_pay_gap")
	}
	if b.CashFlowBuffer < t.CashFlowBufferMonths {
		r.CriteriaMet = append(r.CriteriaMet, "low_cash_flow_buffer")
	}
	r.Confidence = float64(len(r.CriteriaMet)) / 2
	r.Match = len(r.CriteriaMet) == 2
	return r
}

func evalSubscriptionHeavy(b models.SignalBundle, t Thresholds) RuleResult {
	var r RuleResult
	if b.SubscriptionShare > t.SubscriptionShare {
		r.CriteriaMet = append(r.CriteriaMet, "high_subscription_share")
	}
	if b.ActiveSubscriptions > t.SubscriptionCount {
		r.CriteriaMet = append(r.CriteriaMet, "many_subscriptions")
	}
	r.Confidence = float64(len(r.CriteriaMet)) / 2
	r.Match = len(r.CriteriaMet) > 0
	return r
}

func evalSavingsBuilder(b models.SignalBundle, t Thresholds) RuleResult {
	var r RuleResult
	// The utilization gate takes precedence: a highly utilized card
	// suppresses this persona no matter how strong the savings signals are.
	lowUtilization := !b.HasCreditAccounts || b.MaxCardUtilization < t.CardUtilizationGate
	if lowUtilization {
		r.CriteriaMet = append(r.CriteriaMet, "low_card_utilization")
	}
	saving := false
	if b.HasSavingsAccounts && b.SavingsGrowthRate >= t.SavingsGrowthRate {
		r.CriteriaMet = append(r.CriteriaMet, "savings_growth")
		saving = true
	}
	if b.NetMonthlyInflow >= t.NetMonthlyInflow {
		r.CriteriaMet = append(r.CriteriaMet, "positive_net_inflow")
		saving = true
	}
	r.Confidence = float64(len(r.CriteriaMet)) / 3
	r.Match = lowUtilization && saving
	return r
}

func evalLifestyleCreep(b models.SignalBundle, t Thresholds) RuleResult {
	var r RuleResult
	if b.MonthlyIncome > t.HighMonthlyIncome {
		r.CriteriaMet = append(r.CriteriaMet, "high_income")
	}
	if b.SavingsRate < t.LowSavingsRate {
		r.CriteriaMet = append(r.CriteriaMet, "low_savings_rate")
	}
	if b.DiscretionarySpendPercent > t.HighDiscretionaryShare {
		r.CriteriaMet = append(r.CriteriaMet, "high_discretionary_spend")
	}
	r.Confidence = float64(len(r.CriteriaMet)) / 3
	r.Match = len(r.CriteriaMet) == 3
	return r
}
