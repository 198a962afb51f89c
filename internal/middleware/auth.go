package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmarkov/contenthub/internal/logging"
	"github.com/dmarkov/contenthub/internal/models"
	"github.com/dmarkov/contenthub/internal/repo"
	"github.com/dmarkov/contenthub/internal/tokens"
)

const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextRole     = "role"
)

type Auth struct {
	Users        *repo.UserRepo
	AccessSecret []byte
}

func NewAuth(users *repo.UserRepo, accessSecret []byte) *Auth {
	return &Auth{Users: users, AccessSecret: accessSecret}
}

// RequireAuth authenticates the request from the Authorization header and
// resolves the token subject against the user store. An expired access token
// always fails closed here; there is no implicit refresh.
func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(tokenStr, m.AccessSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		// A still-valid token may outlive its user record. A store outage
		// is a server fault, not an authentication failure.
		user, err := m.Users.ByID(c.Request().Context(), userID)
		if err != nil {
			if errors.Is(err, repo.ErrUserNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
			}
			logging.FromContext(c.Request().Context()).Error("user lookup failed",
				"error", err,
				"method", c.Request().Method,
				"path", c.Path(),
				"user_id", userID,
			)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot verify user")
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)
		c.Set(ContextRole, user.Role)

		return next(c)
	}
}

// RequireRole is the authorization layer and assumes RequireAuth already ran.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextRole).(models.Role)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}
