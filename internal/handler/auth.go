package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"quizly/internal/contract"
	"quizly/internal/db"
)

const ErrInvalidCredentials = "invalid email or password"

func (h *Handler) Register(c echo.Context) error {
	var req contract.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := h.db.GetUserByEmail(email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	} else if !errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to check user").SetInternal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to hash password").SetInternal(err)
	}

	var fullName *string
	if req.FullName != "" {
		fullName = &req.FullName
	}

	user, err := h.db.CreateUser(email, string(hash), fullName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create user").SetInternal(err)
	}

	token, err := generateJWT(user.ID, h.jwtSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate JWT").SetInternal(err)
	}

	return c.JSON(http.StatusCreated, contract.AuthResponse{
		Token: token,
		User:  *user,
	})
}

func (h *Handler) Login(c echo.Context) error {
	var req contract.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.db.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user").SetInternal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials)
	}

	token, err := generateJWT(user.ID, h.jwtSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate JWT").SetInternal(err)
	}

	return c.JSON(http.StatusOK, contract.AuthResponse{
		Token: token,
		User:  *user,
	})
}

func generateJWT(userID string, secretKey string) (string, error) {
	claims := &contract.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
		UID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	t, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", err
	}

	return t, nil
}
