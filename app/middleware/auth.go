package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
	"github.com/bayarqu/ms-go-paybridge/app/factory"
	"github.com/bayarqu/ms-go-paybridge/app/repository"
	"github.com/bayarqu/ms-go-paybridge/app/types"
)

const projectContextKey = "auth.project"

// ProjectAuth authenticates merchant requests with a bearer API key. The key
// is stored hashed; the raw credential never touches the database or the
// logs.
func ProjectAuth(projects *repository.ProjectRepository) echo.MiddlewareFunc {
	logger := factory.NewModuleLogger("auth-middleware")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized(c)
			}

			project, keyID, err := projects.FindActiveByAPIKeyHash(c.Request().Context(), hashAPIKey(key))
			if err != nil {
				logger.WithError(err).Error("failed to resolve api key")
				return c.JSON(http.StatusInternalServerError, types.ErrorResponse{
					Error: types.ErrorBody{Code: "internal_error", Message: "something went wrong"},
				})
			}
			if project == nil {
				return unauthorized(c)
			}

			c.Set(projectContextKey, project)

			// Usage tracking is best effort.
			if err := projects.TouchAPIKey(c.Request().Context(), keyID, time.Now().UTC()); err != nil {
				logger.WithError(err).Warn("failed to touch api key")
			}

			return next(c)
		}
	}
}

// ProjectFromContext returns the authenticated project, or nil outside the
// auth middleware.
func ProjectFromContext(c echo.Context) *entity.Project {
	project, _ := c.Get(projectContextKey).(*entity.Project)
	return project
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

func hashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, types.ErrorResponse{
		Error: types.ErrorBody{Code: "unauthorized", Message: "a valid api key is required"},
	})
}
