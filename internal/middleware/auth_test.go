package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dmarkov/contenthub/internal/models"
	"github.com/dmarkov/contenthub/internal/repo"
	"github.com/dmarkov/contenthub/internal/tokens"
)

var accessSecret = []byte("test-jwt-secret")

func newTestAuth(t *testing.T) (*Auth, *repo.UserRepo) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	users := &repo.UserRepo{DB: db, BcryptCost: 4}
	return NewAuth(users, accessSecret), users
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, header string, extra ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(extra) - 1; i >= 0; i-- {
		handler = extra[i](handler)
	}
	return rec, mw(handler)(c)
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
}

func TestRequireAuth_MissingOrMalformedHeader(t *testing.T) {
	mw, _ := newTestAuth(t)

	_, err := doRequest(t, mw.RequireAuth, "")
	requireHTTPError(t, err, http.StatusUnauthorized)

	_, err = doRequest(t, mw.RequireAuth, "Token abc")
	requireHTTPError(t, err, http.StatusUnauthorized)

	_, err = doRequest(t, mw.RequireAuth, "Bearer ")
	requireHTTPError(t, err, http.StatusUnauthorized)
}

func TestRequireAuth_InvalidTokens(t *testing.T) {
	mw, users := newTestAuth(t)

	user, err := users.CreateUser(t.Context(), "alice", "pw123", "")
	require.NoError(t, err)

	_, err = doRequest(t, mw.RequireAuth, "Bearer not.a.jwt")
	requireHTTPError(t, err, http.StatusUnauthorized)

	wrongKey, err := tokens.IssueAccess(user.ID, "alice", models.RoleEditor, []byte("wrong-secret"), time.Hour)
	require.NoError(t, err)
	_, err = doRequest(t, mw.RequireAuth, "Bearer "+wrongKey)
	requireHTTPError(t, err, http.StatusUnauthorized)

	expired, err := tokens.IssueAccess(user.ID, "alice", models.RoleEditor, accessSecret, -time.Minute)
	require.NoError(t, err)
	_, err = doRequest(t, mw.RequireAuth, "Bearer "+expired)
	requireHTTPError(t, err, http.StatusUnauthorized)
}

func TestRequireAuth_DeletedUser(t *testing.T) {
	mw, _ := newTestAuth(t)

	// valid token whose subject no longer exists
	token, err := tokens.IssueAccess(123, "ghost", models.RoleEditor, accessSecret, time.Hour)
	require.NoError(t, err)

	_, err = doRequest(t, mw.RequireAuth, "Bearer "+token)
	requireHTTPError(t, err, http.StatusUnauthorized)
}

func TestRequireAuth_StoreUnavailable(t *testing.T) {
	mw, users := newTestAuth(t)

	user, err := users.CreateUser(t.Context(), "alice", "pw123", "")
	require.NoError(t, err)

	token, err := tokens.IssueAccess(user.ID, user.Username, user.Role, accessSecret, time.Hour)
	require.NoError(t, err)

	// a failing store must surface as a server error, not as a bad credential
	require.NoError(t, users.DB.Migrator().DropTable(&models.User{}))

	_, err = doRequest(t, mw.RequireAuth, "Bearer "+token)
	requireHTTPError(t, err, http.StatusInternalServerError)
}

func TestRequireAuth_SetsContext(t *testing.T) {
	mw, users := newTestAuth(t)

	user, err := users.CreateUser(t.Context(), "alice", "pw123", "admin")
	require.NoError(t, err)

	token, err := tokens.IssueAccess(user.ID, user.Username, user.Role, accessSecret, time.Hour)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = mw.RequireAuth(func(c echo.Context) error {
		require.Equal(t, user.ID, c.Get(ContextUserID))
		require.Equal(t, "alice", c.Get(ContextUsername))
		require.Equal(t, models.RoleAdmin, c.Get(ContextRole))
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	mw, users := newTestAuth(t)

	editor, err := users.CreateUser(t.Context(), "alice", "pw123", "")
	require.NoError(t, err)
	token, err := tokens.IssueAccess(editor.ID, editor.Username, editor.Role, accessSecret, time.Hour)
	require.NoError(t, err)

	// editor passes the editor gate
	rec, err := doRequest(t, mw.RequireAuth, "Bearer "+token, RequireRole(models.RoleAdmin, models.RoleEditor))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	// but not the admin-only gate
	_, err = doRequest(t, mw.RequireAuth, "Bearer "+token, RequireRole(models.RoleAdmin))
	requireHTTPError(t, err, http.StatusForbidden)
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RequireRole(models.RoleAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
	requireHTTPError(t, err, http.StatusUnauthorized)
}
