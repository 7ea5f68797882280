package simulator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dkurilov/persona-service/internal/models"
	"github.com/dkurilov/persona-service/internal/money"
)

// Simulation limits.
const (
	// MaxPayoffMonths caps the simulation at 50 years.
	MaxPayoffMonths = 600
)

var (
	// ErrInvalidInput rejects malformed debt inputs at the boundary.
	ErrInvalidInput = errors.New("invalid simulation input")

	// ErrSimulationDivergent means payments cannot cover accruing interest,
	// so no strategy converges.
	ErrSimulationDivergent = errors.New("payments cannot cover accruing interest")
)

type simDebt struct {
	id      int64
	name    string
	balance float64
	apr     float64
	minimum float64
}

// Compare simulates both payoff strategies plus the minimum-payments-only
// baseline from the same inputs. The baseline's total interest anchors each
// strategy's interest-saved figure.
func Compare(debts []models.DebtAccount, surplus float64) (models.PlanComparison, error) {
	if err := validate(debts, surplus); err != nil {
		return models.PlanComparison{}, err
	}

	baselineInterest, err := baseline(debts)
	if err != nil {
		return models.PlanComparison{}, err
	}

	avalanche, err := simulate(debts, surplus, models.StrategyAvalanche)
	if err != nil {
		return models.PlanComparison{}, err
	}
	snowball, err := simulate(debts, surplus, models.StrategySnowball)
	if err != nil {
		return models.PlanComparison{}, err
	}

	avalanche.InterestSaved = money.Round2(maxFloat(0, baselineInterest-avalanche.TotalInterestPaid))
	snowball.InterestSaved = money.Round2(maxFloat(0, baselineInterest-snowball.TotalInterestPaid))

	return models.PlanComparison{Avalanche: avalanche, Snowball: snowball}, nil
}

func validate(debts []models.DebtAccount, surplus float64) error {
	if len(debts) == 0 {
		return fmt.Errorf("%w: no debts provided", ErrInvalidInput)
	}
	if surplus < 0 {
		return fmt.Errorf("%w: negative monthly surplus", ErrInvalidInput)
	}
	for _, d := range debts {
		if d.Balance < 0 {
			return fmt.Errorf("%w: negative balance on account %d", ErrInvalidInput, d.AccountID)
		}
		if d.APR < 0 {
			return fmt.Errorf("%w: negative APR on account %d", ErrInvalidInput, d.AccountID)
		}
		if d.MinimumPayment < 0 {
			return fmt.Errorf("%w: negative minimum payment on account %d", ErrInvalidInput, d.AccountID)
		}
		if d.Balance > 0 && d.MinimumPayment <= d.Balance*d.APR/12/100 {
			return fmt.Errorf("%w: minimum payment on account %d does not cover monthly interest", ErrSimulationDivergent, d.AccountID)
		}
	}
	return nil
}

// simulate runs one strategy month by month until every balance reaches zero.
func simulate(debts []models.DebtAccount, surplus float64, strategy string) (models.PayoffPlan, error) {
	sim := newSimDebts(debts)
	plan := models.PayoffPlan{
		Strategy:       strategy,
		MonthlySurplus: surplus,
	}

	var totalInterest, totalPaid float64
	month := 0
	for anyOutstanding(sim) {
		month++
		if month > MaxPayoffMonths {
			return models.PayoffPlan{}, fmt.Errorf("%w: %s plan exceeded %d months", ErrSimulationDivergent, strategy, MaxPayoffMonths)
		}

		active := make(map[int64]bool, len(sim))
		paid := make(map[int64]float64, len(sim))

		// Interest accrues on the balance carried into the month.
		extra := surplus
		for _, d := range sim {
			if d.balance <= 0 {
				// A retired debt's minimum rolls into the surplus.
				extra += d.minimum
				continue
			}
			active[d.id] = true
			interest := d.balance * d.apr / 12 / 100
			d.balance += interest
			totalInterest += interest
		}

		// Minimum payments on every open debt.
		for _, d := range sim {
			if !active[d.id] {
				continue
			}
			payment := minFloat(d.minimum, d.balance)
			d.balance -= payment
			paid[d.id] += payment
			totalPaid += payment
			if payment < d.minimum {
				extra += d.minimum - payment
			}
		}

		// Remaining surplus cascades down the priority order, rolling to the
		// next debt whenever one is paid off within the month.
		for _, d := range priorityOrder(sim, strategy) {
			if extra <= 0 {
				break
			}
			if d.balance <= 0 {
				continue
			}
			payment := minFloat(extra, d.balance)
			d.balance -= payment
			paid[d.id] += payment
			totalPaid += payment
			extra -= payment
		}

		entry := models.PlanMonth{Month: month}
		var monthTotal float64
		for _, d := range sim {
			if !active[d.id] {
				continue
			}
			monthTotal += paid[d.id]
			entry.Payments = append(entry.Payments, models.DebtPayment{
				AccountID:        d.id,
				Name:             d.name,
				Payment:          money.Round2(paid[d.id]),
				RemainingBalance: money.Round2(d.balance),
			})
		}
		entry.TotalPaid = money.Round2(monthTotal)
		plan.MonthlyTimeline = append(plan.MonthlyTimeline, entry)
	}

	plan.PayoffMonths = month
	plan.TotalPaid = money.Round2(totalPaid)
	plan.TotalInterestPaid = money.Round2(totalInterest)
	return plan, nil
}

// baseline simulates minimum payments only and returns the total interest
// paid until natural payoff.
func baseline(debts []models.DebtAccount) (float64, error) {
	sim := newSimDebts(debts)
	var totalInterest float64
	month := 0
	for anyOutstanding(sim) {
		month++
		if month > MaxPayoffMonths {
			return 0, fmt.Errorf("%w: minimum-only baseline exceeded %d months", ErrSimulationDivergent, MaxPayoffMonths)
		}
		for _, d := range sim {
			if d.balance <= 0 {
				continue
			}
			interest := d.balance * d.apr / 12 / 100
			d.balance += interest
			totalInterest += interest
			d.balance -= minFloat(d.minimum, d.balance)
		}
	}
	return totalInterest, nil
}

func newSimDebts(debts []models.DebtAccount) []*simDebt {
	sim := make([]*simDebt, 0, len(debts))
	for _, d := range debts {
		if d.Balance <= 0 {
			continue
		}
		sim = append(sim, &simDebt{
			id:      d.AccountID,
			name:    d.Name,
			balance: d.Balance,
			apr:     d.APR,
			minimum: d.MinimumPayment,
		})
	}
	return sim
}

// priorityOrder ranks debts for the surplus cascade. APR is static, so the
// avalanche order never changes; snowball re-ranks on current balances every
// month. Ties break on account id ascending for determinism.
func priorityOrder(sim []*simDebt, strategy string) []*simDebt {
	order := make([]*simDebt, len(sim))
	copy(order, sim)
	if strategy == models.StrategySnowball {
		sort.SliceStable(order, func(i, j int) bool {
			if order[i].balance != order[j].balance {
				return order[i].balance < order[j].balance
			}
			return order[i].id < order[j].id
		})
		return order
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].apr != order[j].apr {
			return order[i].apr > order[j].apr
		}
		return order[i].id < order[j].id
	})
	return order
}

func anyOutstanding(sim []*simDebt) bool {
	for _, d := range sim {
		if d.balance > 0 {
			return true
		}
	}
	return false
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
