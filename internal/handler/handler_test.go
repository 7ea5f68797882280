package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkurilov/persona-service/internal/cache"
	"github.com/dkurilov/persona-service/internal/config"
	"github.com/dkurilov/persona-service/internal/middleware"
	"github.com/dkurilov/persona-service/internal/models"
	"github.com/dkurilov/persona-service/internal/repository"
	"github.com/dkurilov/persona-service/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// emptyStore satisfies repository.Store with no data.
type emptyStore struct{}

func (emptyStore) CreateUser(ctx context.Context, user *models.User) error { return nil }
func (emptyStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
}
func (emptyStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
}
func (emptyStore) ListUserIDs(ctx context.Context) ([]int64, error) { return []int64{}, nil }
func (emptyStore) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	return []models.Account{}, nil
}
func (emptyStore) ListTransactions(ctx context.Context, userID int64, since time.Time) ([]models.Transaction, error) {
	return []models.Transaction{}, nil
}
func (emptyStore) GetLiability(ctx context.Context, accountID int64) (*models.Liability, error) {
	return nil, fmt.Errorf("liability: %w", repository.ErrNotFound)
}
func (emptyStore) ListPersonaHistory(ctx context.Context, userID int64) ([]models.PersonaAssignment, error) {
	return []models.PersonaAssignment{}, nil
}
func (emptyStore) InsertPersonaAssignment(ctx context.Context, assignment *models.PersonaAssignment) error {
	return nil
}

func testRouter(t *testing.T) (*mux.Router, *config.Config) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		SignalWindowDays: 90,
		TrendWindowDays:  180,
		TimelineMonths:   12,
		MonthlySurplus:   500,
	}
	svc := service.NewService(emptyStore{}, cache.NewMemoryCache(), nil, nil, log, cfg)
	h := NewHandler(svc)

	r := mux.NewRouter()
	authRouter := r.PathPrefix("/users").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/{id}/persona", h.GetPersona).Methods("GET")
	authRouter.HandleFunc("/{id}/persona/timeline", h.GetTimeline).Methods("GET")
	return r, cfg
}

func bearerToken(t *testing.T, cfg *config.Config, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Bearer " + signed
}

func TestGetPersonaRequiresAuth(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest("GET", "/users/7/persona", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGetPersonaForbidsOtherUsers(t *testing.T) {
	router, cfg := testRouter(t)

	req := httptest.NewRequest("GET", "/users/7/persona", nil)
	req.Header.Set("Authorization", bearerToken(t, cfg, "8"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestGetPersonaNotFound(t *testing.T) {
	router, cfg := testRouter(t)

	req := httptest.NewRequest("GET", "/users/7/persona", nil)
	req.Header.Set("Authorization", bearerToken(t, cfg, "7"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetTimelineRejectsBadMonths(t *testing.T) {
	router, cfg := testRouter(t)

	req := httptest.NewRequest("GET", "/users/7/persona/timeline?months=zero", nil)
	req.Header.Set("Authorization", bearerToken(t, cfg, "7"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
