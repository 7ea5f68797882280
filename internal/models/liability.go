package models

// Liability holds the credit terms attached to a credit or loan account.
// There is at most one liability record per account.
type Liability struct {
	AccountID            int64   `json:"account_id"`
	APR                  float64 `json:"apr"`
	Balance              float64 `json:"balance"`
	MinimumPayment       float64 `json:"minimum_payment"`
	LastStatementBalance float64 `json:"last_statement_balance"`
	IsOverdue            bool    `json:"is_overdue"`
}
