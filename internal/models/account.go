package models

// Account types as reported by the aggregation provider.
const (
	AccountTypeCredit   = "credit"
	AccountTypeChecking = "checking"
	AccountTypeSavings  = "savings"
)

// Account represents a balance snapshot of a linked financial account.
// Snapshots are immutable per fetch; the storage layer owns their lifecycle.
type Account struct {
	ID               int64   `json:"id"`
	UserID           int64   `json:"user_id"`
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	Subtype          string  `json:"subtype"`
	BalanceCurrent   float64 `json:"balance_current"`
	BalanceAvailable float64 `json:"balance_available"`
	BalanceLimit     float64 `json:"balance_limit"`
	CreatedAt        string  `json:"created_at"`
}

// IsCredit reports whether the account is a revolving credit account.
func (a Account) IsCredit() bool {
	return a.Type == AccountTypeCredit
}

// IsLiquid reports whether the account balance counts toward liquid funds.
func (a Account) IsLiquid() bool {
	return a.Type == AccountTypeChecking || a.Type == AccountTypeSavings
}
