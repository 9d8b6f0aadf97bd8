package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"quizly/internal/contract"
)

// Setup attaches the shared middleware chain: request logging via slog,
// panic recovery, and permissive CORS for the web client.
func Setup(e *echo.Echo, logger *slog.Logger) {
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				logger.LogAttrs(context.Background(), slog.LevelError, "request", attrs...)
				return nil
			}
			logger.LogAttrs(context.Background(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	}))

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
}

// GetUserAuthConfig returns the JWT config for authenticated route groups.
func GetUserAuthConfig(secretKey string) echojwt.Config {
	return echojwt.Config{
		SigningKey: []byte(secretKey),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(contract.JWTClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing token")
		},
	}
}
