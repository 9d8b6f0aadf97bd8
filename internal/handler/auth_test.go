package handler_test

import (
	"encoding/json"
	"net/http"
	"os"
	"testing"

	"quizly/internal/contract"
	"quizly/internal/testutils"
)

func TestMain(m *testing.M) {
	code := m.Run()
	testutils.CleanupTestDB()
	os.Exit(code)
}

func TestRegisterAndLogin(t *testing.T) {
	e, _ := testutils.SetupHandlerDependencies(t)

	registerBody, _ := json.Marshal(contract.RegisterRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
		FullName: "Alice",
	})

	rec := testutils.PerformRequest(t, e, http.MethodPost, "/auth/register", string(registerBody), "", http.StatusCreated)
	registered := testutils.ParseResponse[contract.AuthResponse](t, rec)

	if registered.Token == "" {
		t.Error("expected a JWT in the register response")
	}
	if registered.User.Email != "alice@example.com" {
		t.Errorf("email = %q", registered.User.Email)
	}

	loginBody, _ := json.Marshal(contract.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})

	rec = testutils.PerformRequest(t, e, http.MethodPost, "/auth/login", string(loginBody), "", http.StatusOK)
	loggedIn := testutils.ParseResponse[contract.AuthResponse](t, rec)

	if loggedIn.Token == "" {
		t.Error("expected a JWT in the login response")
	}
	if loggedIn.User.ID != registered.User.ID {
		t.Error("login returned a different user")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e, _ := testutils.SetupHandlerDependencies(t)

	body, _ := json.Marshal(contract.RegisterRequest{
		Email:    "bob@example.com",
		Password: "some-password",
		FullName: "Bob",
	})

	testutils.PerformRequest(t, e, http.MethodPost, "/auth/register", string(body), "", http.StatusCreated)
	testutils.PerformRequest(t, e, http.MethodPost, "/auth/register", string(body), "", http.StatusConflict)
}

func TestLoginWrongPassword(t *testing.T) {
	e, _ := testutils.SetupHandlerDependencies(t)

	testutils.AuthHelper(t, e, "carol@example.com", "right-password")

	loginBody, _ := json.Marshal(contract.LoginRequest{
		Email:    "carol@example.com",
		Password: "wrong-password",
	})

	testutils.PerformRequest(t, e, http.MethodPost, "/auth/login", string(loginBody), "", http.StatusUnauthorized)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e, _ := testutils.SetupHandlerDependencies(t)

	testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks", "", "", http.StatusUnauthorized)
}
