package signals

import (
	"math"
	"testing"
	"time"

	"github.com/dkurilov/persona-service/internal/models"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func txn(accountID int64, daysAgo int, amount float64, merchant, category, primary string) models.Transaction {
	return models.Transaction{
		AccountID:       accountID,
		Date:            testNow.AddDate(0, 0, -daysAgo),
		Amount:          amount,
		MerchantName:    merchant,
		Category:        category,
		CategoryPrimary: primary,
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestExtractUtilization(t *testing.T) {
	in := Input{
		Accounts: []models.Account{
			{ID: 1, Type: models.AccountTypeCredit, BalanceCurrent: 5000, BalanceLimit: 10000},
			{ID: 2, Type: models.AccountTypeCredit, BalanceCurrent: 2000, BalanceLimit: 5000},
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}

	b := Extract(in)

	if !b.HasCreditAccounts {
		t.Fatal("expected HasCreditAccounts to be true")
	}
	if !almostEqual(b.Utilization, 46.6667, 0.01) {
		t.Errorf("utilization = %.4f, want 46.6667", b.Utilization)
	}
	if b.IsHighUtilization {
		t.Error("46.67%% utilization must not be flagged high")
	}
	if !almostEqual(b.MaxCardUtilization, 50, 0.01) {
		t.Errorf("max card utilization = %.2f, want 50", b.MaxCardUtilization)
	}
}

func TestExtractUtilizationHighFlag(t *testing.T) {
	in := Input{
		Accounts: []models.Account{
			{ID: 1, Type: models.AccountTypeCredit, BalanceCurrent: 5000, BalanceLimit: 10000},
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}
	if b := Extract(in); !b.IsHighUtilization {
		t.Error("50%% utilization must be flagged high")
	}
}

func TestExtractEmptyInput(t *testing.T) {
	b := Extract(Input{Now: testNow, Windows: DefaultWindows()})

	if b.HasCreditAccounts || b.HasSavingsAccounts || b.HasIncomeData {
		t.Error("empty input must set no presence flags")
	}
	if b.Utilization != 0 || b.SavingsRate != 0 || b.CashFlowBuffer != 0 {
		t.Error("empty input must yield zero-valued signals")
	}
	if b.PaymentFrequency != "unknown" {
		t.Errorf("payment frequency = %q, want unknown", b.PaymentFrequency)
	}
}

func TestExtractInterestCharges(t *testing.T) {
	in := Input{
		Transactions: []models.Transaction{
			txn(1, 10, -45, "INTEREST CHARGED", "fees", ""),
			txn(1, 40, -45, "Interest Charge", "fees", ""),
			txn(1, 5, -30, "Grocery Store", "groceries", ""),
			txn(1, 200, -45, "Interest Charged", "fees", ""), // outside window
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}

	b := Extract(in)

	if !almostEqual(b.InterestCharges.Total, 90, 0.001) {
		t.Errorf("interest total = %.2f, want 90", b.InterestCharges.Total)
	}
	if !almostEqual(b.InterestCharges.MonthlyAverage, 30, 0.001) {
		t.Errorf("interest monthly average = %.2f, want 30", b.InterestCharges.MonthlyAverage)
	}
}

func TestExtractSavingsRate(t *testing.T) {
	in := Input{
		Transactions: []models.Transaction{
			txn(1, 10, 4000, "Employer", "", models.CategoryPrimaryIncome),
			txn(1, 20, -3000, "Rent Co", "rent", ""),
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}

	b := Extract(in)
	if !almostEqual(b.SavingsRate, 25, 0.001) {
		t.Errorf("savings rate = %.2f, want 25", b.SavingsRate)
	}
}

func TestExtractSavingsRateZeroInflow(t *testing.T) {
	in := Input{
		Transactions: []models.Transaction{
			txn(1, 20, -3000, "Rent Co", "rent", ""),
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}
	if b := Extract(in); b.SavingsRate != 0 {
		t.Errorf("savings rate with zero inflow = %.2f, want 0", b.SavingsRate)
	}
}

func TestExtractMinimumPaymentOnly(t *testing.T) {
	in := Input{
		Accounts: []models.Account{
			{ID: 1, Type: models.AccountTypeCredit, BalanceCurrent: 3000, BalanceLimit: 10000},
		},
		Liabilities: []models.Liability{
			{AccountID: 1, APR: 24, Balance: 3000, MinimumPayment: 35},
		},
		Transactions: []models.Transaction{
			txn(1, 12, 35.50, "Payment Received", "payment", ""),
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}

	if b := Extract(in); !b.MinimumPaymentOnly {
		t.Error("payment within tolerance of the minimum must set MinimumPaymentOnly")
	}
}

func TestExtractOverdue(t *testing.T) {
	in := Input{
		Liabilities: []models.Liability{
			{AccountID: 1, IsOverdue: true},
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}
	if b := Extract(in); !b.IsOverdue {
		t.Error("overdue liability must set IsOverdue")
	}
}

func TestExtractRecurringMerchants(t *testing.T) {
	in := Input{
		Transactions: []models.Transaction{
			txn(1, 10, -15.99, "Netflix", "entertainment", ""), // June
			txn(1, 40, -15.99, "Netflix", "entertainment", ""), // May
			txn(1, 5, -50, "Corner Cafe", "dining", ""),
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}

	b := Extract(in)

	if b.ActiveSubscriptions != 1 {
		t.Fatalf("active subscriptions = %d, want 1", b.ActiveSubscriptions)
	}
	wantShare := 31.98 / 81.98 * 100
	if !almostEqual(b.SubscriptionShare, wantShare, 0.01) {
		t.Errorf("subscription share = %.2f, want %.2f", b.SubscriptionShare, wantShare)
	}
	if !almostEqual(b.MonthlyRecurringSpend, 15.99, 0.001) {
		t.Errorf("monthly recurring spend = %.2f, want 15.99", b.MonthlyRecurringSpend)
	}
}

func TestExtractRecurringRequiresComparableAmounts(t *testing.T) {
	in := Input{
		Transactions: []models.Transaction{
			txn(1, 10, -200, "Hardware Store", "shopping", ""),
			txn(1, 40, -20, "Hardware Store", "shopping", ""),
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}
	if b := Extract(in); b.ActiveSubscriptions != 0 {
		t.Errorf("wildly different amounts must not count as recurring, got %d", b.ActiveSubscriptions)
	}
}

func TestExtractDiscretionaryShare(t *testing.T) {
	in := Input{
		Transactions: []models.Transaction{
			txn(1, 5, -300, "Restaurant", "dining", ""),
			txn(1, 8, -100, "Cinema", "entertainment", ""),
			txn(1, 10, -600, "Utility Co", "utilities", ""),
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}

	b := Extract(in)
	if !almostEqual(b.DiscretionarySpendPercent, 40, 0.001) {
		t.Errorf("discretionary share = %.2f, want 40", b.DiscretionarySpendPercent)
	}
}

func TestExtractIncomeStabilityBiweekly(t *testing.T) {
	in := Input{
		Transactions: []models.Transaction{
			txn(1, 14, 2000, "Employer", "", models.CategoryPrimaryIncome),
			txn(1, 28, 2000, "Employer", "", models.CategoryPrimaryIncome),
			txn(1, 42, 2000, "Employer", "", models.CategoryPrimaryIncome),
			txn(1, 56, 2000, "Employer", "", models.CategoryPrimaryIncome),
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}

	b := Extract(in)

	if !b.HasIncomeData {
		t.Fatal("expected income data to be present")
	}
	if !almostEqual(b.MedianPayGap, 14, 0.001) {
		t.Errorf("median pay gap = %.2f, want 14", b.MedianPayGap)
	}
	if b.PaymentFrequency != "biweekly" {
		t.Errorf("payment frequency = %q, want biweekly", b.PaymentFrequency)
	}
}

func TestExtractIncomeStabilityIrregular(t *testing.T) {
	in := Input{
		Transactions: []models.Transaction{
			txn(1, 5, 900, "Client A", "", models.CategoryPrimaryIncome),
			txn(1, 10, 400, "Client B", "", models.CategoryPrimaryIncome),
			txn(1, 30, 1500, "Client C", "", models.CategoryPrimaryIncome),
			txn(1, 75, 700, "Client A", "", models.CategoryPrimaryIncome),
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}

	b := Extract(in)
	if b.PaymentFrequency != "irregular" {
		t.Errorf("payment frequency = %q, want irregular", b.PaymentFrequency)
	}
}

func TestExtractSavingsGrowth(t *testing.T) {
	in := Input{
		Accounts: []models.Account{
			{ID: 3, Type: models.AccountTypeSavings, BalanceCurrent: 6600},
		},
		Transactions: []models.Transaction{
			// 600 net inflow into savings over the trend window.
			txn(3, 30, 300, "Transfer In", "transfer", ""),
			txn(3, 90, 300, "Transfer In", "transfer", ""),
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}

	b := Extract(in)

	if !b.HasSavingsAccounts {
		t.Fatal("expected HasSavingsAccounts to be true")
	}
	// Start balance 6000, growth 10% over 6 months.
	want := 10.0 / 6.0
	if !almostEqual(b.SavingsGrowthRate, want, 0.01) {
		t.Errorf("savings growth rate = %.3f, want %.3f", b.SavingsGrowthRate, want)
	}
}

func TestExtractCashFlowBuffer(t *testing.T) {
	in := Input{
		Accounts: []models.Account{
			{ID: 1, Type: models.AccountTypeChecking, BalanceCurrent: 3000},
			{ID: 2, Type: models.AccountTypeSavings, BalanceCurrent: 3000},
		},
		Transactions: []models.Transaction{
			txn(1, 10, -1000, "Rent Co", "rent", ""),
			txn(1, 40, -1000, "Rent Co", "rent", ""),
			txn(1, 70, -1000, "Rent Co", "rent", ""),
		},
		Now:     testNow,
		Windows: DefaultWindows(),
	}

	b := Extract(in)
	// 6000 liquid against 1000/month outflow.
	if !almostEqual(b.CashFlowBuffer, 6, 0.01) {
		t.Errorf("cash flow buffer = %.2f, want 6", b.CashFlowBuffer)
	}
}
