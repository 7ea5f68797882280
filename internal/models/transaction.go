package models

import "time"

// CategoryPrimaryIncome tags transactions that represent income deposits.
const CategoryPrimaryIncome = "INCOME"

// Transaction represents a financial transaction. Amounts are signed:
// negative is an outflow, positive is an inflow. Transactions are
// append-only and never mutated once recorded.
type Transaction struct {
	ID              int64     `json:"id"`
	AccountID       int64     `json:"account_id"`
	Date            time.Time `json:"date"`
	Amount          float64   `json:"amount"`
	MerchantName    string    `json:"merchant_name"`
	Category        string    `json:"category"`
	CategoryPrimary string    `json:"category_primary"`
}

// IsOutflow reports whether the transaction moves money out of the account.
func (t Transaction) IsOutflow() bool {
	return t.Amount < 0
}

// IsIncome reports whether the transaction is tagged as income.
func (t Transaction) IsIncome() bool {
	return t.CategoryPrimary == CategoryPrimaryIncome
}
