package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkurilov/persona-service/internal/cache"
	"github.com/dkurilov/persona-service/internal/config"
	"github.com/dkurilov/persona-service/internal/models"
	"github.com/dkurilov/persona-service/internal/persona"
	"github.com/dkurilov/persona-service/internal/recommend"
	"github.com/dkurilov/persona-service/internal/repository"
	"github.com/dkurilov/persona-service/internal/signals"
	"github.com/dkurilov/persona-service/internal/simulator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ErrNoAssignment means the user has never been classified.
var ErrNoAssignment = errors.New("no persona assignment exists")

// ErrNoDebtAccounts means the user has no open credit or loan accounts to
// simulate.
var ErrNoDebtAccounts = errors.New("no open debt accounts")

// signalCacheTTL bounds how long a memoized bundle may live. Bundles are
// also keyed by as-of day, so a bundle never crosses a day boundary.
const signalCacheTTL = 24 * time.Hour

// RateSource supplies the benchmark consumer APR.
type RateSource interface {
	BenchmarkAPR() (float64, error)
}

// Notifier delivers persona-change notifications.
type Notifier interface {
	SendPersonaChange(to, username string, from, current models.PersonaType) error
}

// Service handles business logic
type Service struct {
	repo       repository.Store
	cache      cache.Repository
	classifier *persona.Classifier
	rates      RateSource
	notifier   Notifier
	log        *logrus.Logger
	config     *config.Config
	now        func() time.Time
}

// NewService initializes a new service. rates and notifier may be nil; the
// refinance check and change notifications are then skipped.
func NewService(repo repository.Store, c cache.Repository, rates RateSource, notifier Notifier, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:       repo,
		cache:      c,
		classifier: persona.NewClassifier(),
		rates:      rates,
		notifier:   notifier,
		log:        log,
		config:     cfg,
		now:        time.Now,
	}
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// ClassifyUser runs one classification: extract signals, evaluate the
// rule-sets, append exactly one assignment. Returns persona.ErrUnclassifiable
// when no rule-set matches; nothing is persisted in that case.
func (s *Service) ClassifyUser(ctx context.Context, userID int64) (*models.PersonaAssignment, error) {
	now := s.now()
	bundle, err := s.signalBundle(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	result, err := s.classifier.Classify(bundle)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListPersonaHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	var previous models.PersonaType
	if len(history) > 0 {
		previous = history[len(history)-1].Persona
	}

	assignment := &models.PersonaAssignment{
		ID:          uuid.NewString(),
		UserID:      userID,
		Persona:     result.Primary.Persona,
		WindowDays:  bundle.WindowDays,
		Confidence:  result.Primary.Confidence,
		CriteriaMet: result.Primary.CriteriaMet,
		Signals:     bundle,
		AssignedAt:  now,
	}
	for _, m := range result.Secondary {
		assignment.Secondary = append(assignment.Secondary, models.SecondaryPersona{
			Persona:    m.Persona,
			Confidence: m.Confidence,
		})
	}

	if err := s.repo.InsertPersonaAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	s.log.Infof("User %d classified as %s (confidence %.2f)", userID, assignment.Persona, assignment.Confidence)

	if s.notifier != nil && previous != assignment.Persona {
		s.notifyChange(ctx, userID, previous, assignment.Persona)
	}

	return assignment, nil
}

// CurrentPersona returns the assignment with the latest assigned_at.
func (s *Service) CurrentPersona(ctx context.Context, userID int64) (*models.PersonaAssignment, error) {
	history, err := s.repo.ListPersonaHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNoAssignment)
	}
	current := history[len(history)-1]
	return &current, nil
}

// Timeline reconstructs the month-by-month persona history with a narrative
// summary.
func (s *Service) Timeline(ctx context.Context, userID int64, months int) ([]models.PersonaTimelineEntry, string, error) {
	if months <= 0 {
		months = s.config.TimelineMonths
	}
	history, err := s.repo.ListPersonaHistory(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	entries := persona.BuildTimeline(history, months, s.now())
	return entries, persona.SummarizeTimeline(entries), nil
}

// DebtPlan simulates avalanche and snowball payoff over the user's open
// debts. A non-positive surplus falls back to the configured default.
func (s *Service) DebtPlan(ctx context.Context, userID int64, surplus float64) (models.PlanComparison, error) {
	if surplus <= 0 {
		surplus = s.config.MonthlySurplus
	}

	accounts, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		return models.PlanComparison{}, err
	}

	debts := []models.DebtAccount{}
	for _, a := range accounts {
		if !a.IsCredit() {
			continue
		}
		liability, err := s.repo.GetLiability(ctx, a.ID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return models.PlanComparison{}, err
		}
		if liability.Balance <= 0 {
			continue
		}
		debts = append(debts, models.DebtAccount{
			AccountID:      a.ID,
			Name:           a.Name,
			Balance:        liability.Balance,
			APR:            liability.APR,
			MinimumPayment: liability.MinimumPayment,
		})
	}
	if len(debts) == 0 {
		return models.PlanComparison{}, fmt.Errorf("user %d: %w", userID, ErrNoDebtAccounts)
	}

	return simulator.Compare(debts, surplus)
}

// Recommendations synthesizes actionable items for the user's current
// persona. Users with no assignment still get the generic list.
func (s *Service) Recommendations(ctx context.Context, userID int64) ([]models.Recommendation, error) {
	assignment, err := s.CurrentPersona(ctx, userID)
	if err != nil && !errors.Is(err, ErrNoAssignment) {
		return nil, err
	}
	if assignment == nil {
		return recommend.Synthesize(nil, models.SignalBundle{}, recommend.Options{}), nil
	}

	opts := recommend.Options{HighestAPR: s.highestAPR(ctx, userID)}
	if s.rates != nil {
		benchmark, err := s.rates.BenchmarkAPR()
		if err != nil {
			s.log.Warnf("Failed to fetch benchmark APR: %v", err)
		} else {
			opts.BenchmarkAPR = benchmark
		}
	}

	return recommend.Synthesize(assignment, assignment.Signals, opts), nil
}

// ReclassifyAll re-runs classification for every user. Unclassifiable users
// are skipped, other failures are logged and do not stop the sweep.
func (s *Service) ReclassifyAll(ctx context.Context) {
	ids, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		s.log.Errorf("Failed to list users for reclassification: %v", err)
		return
	}
	for _, id := range ids {
		if _, err := s.ClassifyUser(ctx, id); err != nil {
			if errors.Is(err, persona.ErrUnclassifiable) {
				s.log.Debugf("User %d remains unclassified", id)
				continue
			}
			s.log.Warnf("Failed to reclassify user %d: %v", id, err)
		}
	}
	s.log.Infof("Reclassification sweep finished for %d users", len(ids))
}

// signalBundle computes the user's signals, memoized per (user, window,
// as-of day) so repeated requests inside one day reuse the bundle.
func (s *Service) signalBundle(ctx context.Context, userID int64, now time.Time) (models.SignalBundle, error) {
	windows := signals.Windows{
		SignalDays: s.config.SignalWindowDays,
		TrendDays:  s.config.TrendWindowDays,
	}

	key := fmt.Sprintf("signals:%d:%d:%s", userID, windows.SignalDays, now.Format("2006-01-02"))
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			var bundle models.SignalBundle
			if err := json.Unmarshal([]byte(cached), &bundle); err == nil {
				return bundle, nil
			}
			s.log.Warnf("Discarding undecodable cached bundle for user %d", userID)
		}
	}

	accounts, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		return models.SignalBundle{}, err
	}
	txns, err := s.repo.ListTransactions(ctx, userID, now.AddDate(0, 0, -windows.TrendDays))
	if err != nil {
		return models.SignalBundle{}, err
	}

	liabilities := []models.Liability{}
	for _, a := range accounts {
		if !a.IsCredit() {
			continue
		}
		liability, err := s.repo.GetLiability(ctx, a.ID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return models.SignalBundle{}, err
		}
		liabilities = append(liabilities, *liability)
	}

	bundle := signals.Extract(signals.Input{
		Accounts:     accounts,
		Transactions: txns,
		Liabilities:  liabilities,
		Now:          now,
		Windows:      windows,
	})

	if s.cache != nil {
		if encoded, err := json.Marshal(bundle); err == nil {
			if err := s.cache.Set(key, string(encoded), signalCacheTTL); err != nil {
				s.log.Warnf("Failed to cache signal bundle for user %d: %v", userID, err)
			}
		}
	}
	return bundle, nil
}

func (s *Service) highestAPR(ctx context.Context, userID int64) float64 {
	accounts, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		s.log.Warnf("Failed to list accounts for user %d: %v", userID, err)
		return 0
	}
	var highest float64
	for _, a := range accounts {
		if !a.IsCredit() {
			continue
		}
		liability, err := s.repo.GetLiability(ctx, a.ID)
		if err != nil {
			continue
		}
		if liability.APR > highest {
			highest = liability.APR
		}
	}
	return highest
}

func (s *Service) notifyChange(ctx context.Context, userID int64, previous, current models.PersonaType) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		s.log.Warnf("Cannot notify user %d: %v", userID, err)
		return
	}
	if err := s.notifier.SendPersonaChange(user.Email, user.Username, previous, current); err != nil {
		s.log.Warnf("Failed to notify user %d of persona change: %v", userID, err)
	}
}
