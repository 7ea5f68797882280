package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkurilov/persona-service/internal/models"
)

// ErrNotFound marks a lookup that matched no rows.
var ErrNotFound = errors.New("not found")

// Store is the read/write contract the engine depends on. List methods
// return empty slices, never nil, when no data exists.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	ListAccounts(ctx context.Context, userID int64) ([]models.Account, error)
	ListTransactions(ctx context.Context, userID int64, since time.Time) ([]models.Transaction, error)
	GetLiability(ctx context.Context, accountID int64) (*models.Liability, error)
	ListPersonaHistory(ctx context.Context, userID int64) ([]models.PersonaAssignment, error)
	InsertPersonaAssignment(ctx context.Context, assignment *models.PersonaAssignment) error
}

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO fin.users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM fin.users
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM fin.users
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUserIDs returns the ids of all registered users.
func (r *Repository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM fin.users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListAccounts returns all account snapshots for a user.
func (r *Repository) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	query := `
		SELECT id, user_id, name, type, subtype, balance_current, balance_available, balance_limit, created_at
		FROM fin.accounts
		WHERE user_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Subtype,
			&a.BalanceCurrent, &a.BalanceAvailable, &a.BalanceLimit, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// ListTransactions returns a user's transactions on or after the since date,
// oldest first.
func (r *Repository) ListTransactions(ctx context.Context, userID int64, since time.Time) ([]models.Transaction, error) {
	query := `
		SELECT t.id, t.account_id, t.date, t.amount, t.merchant_name, t.category, t.category_primary
		FROM fin.transactions t
		JOIN fin.accounts a ON a.id = t.account_id
		WHERE a.user_id = $1 AND t.date >= $2
		ORDER BY t.date`
	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Date, &t.Amount,
			&t.MerchantName, &t.Category, &t.CategoryPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// GetLiability returns the liability record attached to an account.
func (r *Repository) GetLiability(ctx context.Context, accountID int64) (*models.Liability, error) {
	l := &models.Liability{}
	query := `
		SELECT account_id, apr, balance, minimum_payment, last_statement_balance, is_overdue
		FROM fin.liabilities
		WHERE account_id = $1`
	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&l.AccountID, &l.APR, &l.Balance, &l.MinimumPayment, &l.LastStatementBalance, &l.IsOverdue)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("liability for account %d: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get liability: %w", err)
	}
	return l, nil
}

// ListPersonaHistory returns every persona assignment for a user ordered by
// assigned_at ascending.
func (r *Repository) ListPersonaHistory(ctx context.Context, userID int64) ([]models.PersonaAssignment, error) {
	query := `
		SELECT id, user_id, persona, window_days, confidence, criteria_met, secondary, signals, assigned_at
		FROM fin.persona_assignments
		WHERE user_id = $1
		ORDER BY assigned_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list persona history: %w", err)
	}
	defer rows.Close()

	history := []models.PersonaAssignment{}
	for rows.Next() {
		var a models.PersonaAssignment
		var criteria, secondary, signals []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.Persona, &a.WindowDays, &a.Confidence,
			&criteria, &secondary, &signals, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan persona assignment: %w", err)
		}
		if err := json.Unmarshal(criteria, &a.CriteriaMet); err != nil {
			return nil, fmt.Errorf("failed to decode criteria: %w", err)
		}
		if err := json.Unmarshal(secondary, &a.Secondary); err != nil {
			return nil, fmt.Errorf("failed to decode secondary personas: %w", err)
		}
		if err := json.Unmarshal(signals, &a.Signals); err != nil {
			return nil, fmt.Errorf("failed to decode signals: %w", err)
		}
		history = append(history, a)
	}
	return history, rows.Err()
}

// InsertPersonaAssignment appends a classification run. Assignments are
// never updated in place.
func (r *Repository) InsertPersonaAssignment(ctx context.Context, assignment *models.PersonaAssignment) error {
	criteria, err := json.Marshal(assignment.CriteriaMet)
	if err != nil {
		return fmt.Errorf("failed to encode criteria: %w", err)
	}
	secondary, err := json.Marshal(assignment.Secondary)
	if err != nil {
		return fmt.Errorf("failed to encode secondary personas: %w", err)
	}
	signals, err := json.Marshal(assignment.Signals)
	if err != nil {
		return fmt.Errorf("failed to encode signals: %w", err)
	}

	query := `
		INSERT INTO fin.persona_assignments
			(id, user_id, persona, window_days, confidence, criteria_met, secondary, signals, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.db.ExecContext(ctx, query,
		assignment.ID, assignment.UserID, assignment.Persona, assignment.WindowDays,
		assignment.Confidence, criteria, secondary, signals, assignment.AssignedAt)
	if err != nil {
		return fmt.Errorf("failed to insert persona assignment: %w", err)
	}
	return nil
}
