package signals

import (
	"sort"
	"strings"
	"time"

	"github.com/dkurilov/persona-service/internal/models"
)

// Window defaults and extraction thresholds. Kept as named constants so the
// classifier thresholds and these stay overridable in one place.
const (
	DefaultWindowDays = 90
	DefaultTrendDays  = 180

	// HighUtilizationThreshold flags aggregate utilization at or above this percent.
	HighUtilizationThreshold = 50.0

	// interestMerchantPattern marks interest-charge transactions by merchant name.
	interestMerchantPattern = "interest"

	// MinimumPaymentTolerance is the dollar tolerance when comparing statement
	// payments against the liability's minimum payment.
	MinimumPaymentTolerance = 1.0

	// statementPeriodDays approximates one statement cycle.
	statementPeriodDays = 30

	// recurringAmountTolerance is the relative difference allowed between two
	// consecutive monthly charges for a merchant to count as recurring.
	recurringAmountTolerance = 0.2
)

// discretionaryCategories are the spend categories treated as discretionary.
var discretionaryCategories = map[string]bool{
	"entertainment": true,
	"dining":        true,
	"shopping":      true,
}

// Windows bounds the trailing windows used during extraction.
type Windows struct {
	SignalDays int // most signals
	TrendDays  int // growth/trend signals
}

// DefaultWindows returns the standard 90/180 day windows.
func DefaultWindows() Windows {
	return Windows{SignalDays: DefaultWindowDays, TrendDays: DefaultTrendDays}
}

// Input carries everything the extractor reads. Transactions must cover at
// least the trend window; the extractor filters by date itself.
type Input struct {
	Accounts     []models.Account
	Transactions []models.Transaction
	Liabilities  []models.Liability
	Now          time.Time
	Windows      Windows
}

// Extract computes the full signal bundle. Every signal is computed
// independently; missing underlying data yields the signal's zero value and
// a false presence flag, never an error.
func Extract(in Input) models.SignalBundle {
	w := in.Windows
	if w.SignalDays <= 0 {
		w.SignalDays = DefaultWindowDays
	}
	if w.TrendDays < w.SignalDays {
		w.TrendDays = DefaultTrendDays
	}
	windowStart := in.Now.AddDate(0, 0, -w.SignalDays)
	trendStart := in.Now.AddDate(0, 0, -w.TrendDays)
	windowMonths := float64(w.SignalDays) / 30.0

	bundle := models.SignalBundle{
		WindowDays:       w.SignalDays,
		PaymentFrequency: "unknown",
	}

	var windowTxns, trendTxns []models.Transaction
	for _, t := range in.Transactions {
		if t.Date.After(in.Now) {
			continue
		}
		if t.Date.After(trendStart) {
			trendTxns = append(trendTxns, t)
		}
		if t.Date.After(windowStart) {
			windowTxns = append(windowTxns, t)
		}
	}

	extractUtilization(in.Accounts, &bundle)
	extractInterestCharges(windowTxns, windowMonths, &bundle)
	extractLiabilityFlags(in.Liabilities, windowTxns, in.Now, &bundle)
	extractCashFlow(in.Accounts, windowTxns, windowMonths, &bundle)
	extractSavings(in.Accounts, trendTxns, float64(w.TrendDays)/30.0, &bundle)
	extractRecurrence(windowTxns, &bundle)
	extractDiscretionary(windowTxns, &bundle)
	extractIncomeStability(windowTxns, &bundle)

	return bundle
}

func extractUtilization(accounts []models.Account, b *models.SignalBundle) {
	var totalBalance, totalLimit, maxUtil float64
	for _, a := range accounts {
		if !a.IsCredit() || a.BalanceLimit <= 0 {
			continue
		}
		b.HasCreditAccounts = true
		totalBalance += a.BalanceCurrent
		totalLimit += a.BalanceLimit
		if u := a.BalanceCurrent / a.BalanceLimit * 100; u > maxUtil {
			maxUtil = u
		}
	}
	if totalLimit <= 0 {
		return
	}
	b.Utilization = totalBalance / totalLimit * 100
	b.MaxCardUtilization = maxUtil
	b.IsHighUtilization = b.Utilization >= HighUtilizationThreshold
}

func extractInterestCharges(txns []models.Transaction, windowMonths float64, b *models.SignalBundle) {
	var total float64
	for _, t := range txns {
		if !t.IsOutflow() {
			continue
		}
		if strings.Contains(strings.ToLower(t.MerchantName), interestMerchantPattern) {
			total += -t.Amount
		}
	}
	b.InterestCharges = models.InterestCharges{
		Total:          total,
		MonthlyAverage: total / windowMonths,
	}
}

func extractLiabilityFlags(liabilities []models.Liability, txns []models.Transaction, now time.Time, b *models.SignalBundle) {
	statementStart := now.AddDate(0, 0, -statementPeriodDays)
	for _, l := range liabilities {
		if l.IsOverdue {
			b.IsOverdue = true
		}
		if l.MinimumPayment <= 0 {
			continue
		}
		var paid float64
		for _, t := range txns {
			if t.AccountID == l.AccountID && t.Amount > 0 && t.Date.After(statementStart) {
				paid += t.Amount
			}
		}
		if paid > 0 && abs(paid-l.MinimumPayment) <= MinimumPaymentTolerance {
			b.MinimumPaymentOnly = true
		}
	}
}

func extractCashFlow(accounts []models.Account, txns []models.Transaction, windowMonths float64, b *models.SignalBundle) {
	var inflow, outflow float64
	for _, t := range txns {
		if t.Amount > 0 {
			inflow += t.Amount
		} else {
			outflow += -t.Amount
		}
	}
	b.MonthlyOutflow = outflow / windowMonths
	monthlyInflow := inflow / windowMonths
	b.NetMonthlyInflow = monthlyInflow - b.MonthlyOutflow

	if inflow > 0 {
		b.SavingsRate = (inflow - outflow) / inflow * 100
	}

	var liquid float64
	for _, a := range accounts {
		if a.IsLiquid() {
			liquid += a.BalanceCurrent
		}
	}
	if b.MonthlyOutflow > 0 {
		b.CashFlowBuffer = liquid / b.MonthlyOutflow
	}
}

func extractSavings(accounts []models.Account, trendTxns []models.Transaction, trendMonths float64, b *models.SignalBundle) {
	savingsIDs := make(map[int64]bool)
	var savingsBalance float64
	for _, a := range accounts {
		if a.Type == models.AccountTypeSavings {
			b.HasSavingsAccounts = true
			savingsIDs[a.ID] = true
			savingsBalance += a.BalanceCurrent
		}
	}
	if !b.HasSavingsAccounts {
		return
	}

	// Essential spend excludes discretionary categories.
	var essential float64
	for _, t := range trendTxns {
		if t.IsOutflow() && !discretionaryCategories[strings.ToLower(t.Category)] {
			essential += -t.Amount
		}
	}
	monthlyEssential := essential / trendMonths
	if monthlyEssential > 0 {
		b.EmergencyFundCoverage = savingsBalance / monthlyEssential
	}

	// Reconstruct the window-start balance from net flows into savings.
	var netFlow float64
	for _, t := range trendTxns {
		if savingsIDs[t.AccountID] {
			netFlow += t.Amount
		}
	}
	start := savingsBalance - netFlow
	if start > 0 && trendMonths > 0 {
		b.SavingsGrowthRate = (savingsBalance - start) / start * 100 / trendMonths
	}
}

func extractRecurrence(txns []models.Transaction, b *models.SignalBundle) {
	type merchantMonths struct {
		byMonth map[int]float64
		total   float64
	}
	merchants := make(map[string]*merchantMonths)
	var totalSpend float64
	for _, t := range txns {
		if !t.IsOutflow() {
			continue
		}
		totalSpend += -t.Amount
		name := strings.ToLower(strings.TrimSpace(t.MerchantName))
		if name == "" {
			continue
		}
		m, ok := merchants[name]
		if !ok {
			m = &merchantMonths{byMonth: make(map[int]float64)}
			merchants[name] = m
		}
		idx := t.Date.Year()*12 + int(t.Date.Month())
		m.byMonth[idx] += -t.Amount
		m.total += -t.Amount
	}

	var recurringTotal, recurringMonthly float64
	for _, m := range merchants {
		if !isRecurring(m.byMonth) {
			continue
		}
		b.ActiveSubscriptions++
		recurringTotal += m.total
		recurringMonthly += m.total / float64(len(m.byMonth))
	}
	b.MonthlyRecurringSpend = recurringMonthly
	if totalSpend > 0 {
		b.SubscriptionShare = recurringTotal / totalSpend * 100
	}
}

// isRecurring reports whether a merchant was charged in two consecutive
// months at comparable amounts.
func isRecurring(byMonth map[int]float64) bool {
	for idx, amount := range byMonth {
		next, ok := byMonth[idx+1]
		if !ok {
			continue
		}
		larger := amount
		if next > larger {
			larger = next
		}
		if abs(amount-next) <= recurringAmountTolerance*larger {
			return true
		}
	}
	return false
}

func extractDiscretionary(txns []models.Transaction, b *models.SignalBundle) {
	var total, discretionary float64
	for _, t := range txns {
		if !t.IsOutflow() {
			continue
		}
		total += -t.Amount
		if discretionaryCategories[strings.ToLower(t.Category)] {
			discretionary += -t.Amount
		}
	}
	if total > 0 {
		b.DiscretionarySpendPercent = discretionary / total * 100
	}
}

func extractIncomeStability(txns []models.Transaction, b *models.SignalBundle) {
	var dates []time.Time
	var income float64
	for _, t := range txns {
		if t.IsIncome() && t.Amount > 0 {
			dates = append(dates, t.Date)
			income += t.Amount
		}
	}
	b.MonthlyIncome = income / (float64(b.WindowDays) / 30.0)
	if len(dates) < 2 {
		return
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	gaps := make([]float64, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		gaps = append(gaps, dates[i].Sub(dates[i-1]).Hours()/24)
	}
	sort.Float64s(gaps)
	mid := len(gaps) / 2
	if len(gaps)%2 == 0 {
		b.MedianPayGap = (gaps[mid-1] + gaps[mid]) / 2
	} else {
		b.MedianPayGap = gaps[mid]
	}
	b.HasIncomeData = true
	b.PaymentFrequency = classifyFrequency(b.MedianPayGap)
}

// classifyFrequency maps a median pay gap onto a pay cycle.
func classifyFrequency(gapDays float64) string {
	switch {
	case gapDays >= 5 && gapDays <= 9:
		return "weekly"
	case gapDays >= 12 && gapDays <= 17:
		return "biweekly"
	case gapDays >= 26 && gapDays <= 35:
		return "monthly"
	default:
		return "irregular"
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
