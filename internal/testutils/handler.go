package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"quizly/internal/ai"
	"quizly/internal/contract"
	"quizly/internal/db"
	"quizly/internal/generation"
	"quizly/internal/grading"
	"quizly/internal/handler"
	"quizly/internal/middleware"
)

const (
	TestJWTSecret = "test-jwt-secret"
	TestDBPath    = ":memory:" // in-memory SQLite for tests
)

var dbStorage *db.Storage

// CustomValidator implements the echo.Validator interface
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// StubCompleter returns a fixed chat completion for handler tests.
type StubCompleter struct {
	Response string
	Err      error
}

func (s *StubCompleter) Complete(_ context.Context, _ ai.ChatRequest) (*ai.ChatResult, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return &ai.ChatResult{Text: s.Response}, nil
}

// StubEmbedder returns a fixed unit vector for every input so identical
// texts always grade as similar.
type StubEmbedder struct{}

func (StubEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	return []float64{1, 0, 0}, nil
}

func (StubEmbedder) ModelName() string { return "stub-embedding-model" }

// StubSynthesizer returns the input text as bytes, enough to exercise upload
// paths without real audio.
type StubSynthesizer struct{}

func (StubSynthesizer) Synthesize(_ context.Context, text string, _ ai.Voice) ([]byte, error) {
	return []byte(text), nil
}

func CleanupTestDB() {
	if dbStorage != nil {
		if err := dbStorage.Close(); err != nil {
			fmt.Printf("Warning: Failed to close test database: %v\n", err)
		}
		dbStorage = nil
	}
}

func setupTestDB() (*db.Storage, error) {
	storage, err := db.ConnectDB(TestDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return storage, nil
}

// SetupHandlerDependencies wires a full echo app backed by an in-memory
// database and stubbed AI providers. The stub completer's response can be
// swapped per test via the returned pointer.
func SetupHandlerDependencies(t *testing.T) (*echo.Echo, *StubCompleter) {
	var err error
	if dbStorage == nil {
		dbStorage, err = setupTestDB()
		if err != nil {
			t.Fatalf("Failed to initialize test database: %v", err)
		}
	}

	logr := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	completer := &StubCompleter{}
	scorer := grading.NewScorer(StubEmbedder{}, dbStorage, 0, logr)
	grader := grading.NewGrader(scorer, completer, logr)
	generator := generation.NewGenerator(completer, logr)

	h := handler.New(dbStorage, TestJWTSecret, nil, completer, StubSynthesizer{}, grader, scorer, generator, logr)

	e := echo.New()

	middleware.Setup(e, logr)

	e.Validator = &CustomValidator{validator: validator.New()}

	h.RegisterRoutes(e)

	return e, completer
}

func PerformRequest(t *testing.T, e *echo.Echo, method, path, body, token string, expectedStatus int) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != expectedStatus {
		t.Errorf("Expected status %d, got %d, body: %s", expectedStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func ParseResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var result T
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return result
}

// AuthHelper registers a fresh user and returns the auth payload with a
// usable bearer token.
func AuthHelper(t *testing.T, e *echo.Echo, email, password string) contract.AuthResponse {
	reqBody := contract.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: "Test User",
	}

	body, _ := json.Marshal(reqBody)

	rec := PerformRequest(t, e, http.MethodPost, "/auth/register", string(body), "", http.StatusCreated)

	return ParseResponse[contract.AuthResponse](t, rec)
}
