package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dmarkov/contenthub/internal/middleware"
	"github.com/dmarkov/contenthub/internal/models"
	"github.com/dmarkov/contenthub/internal/repo"
	"github.com/dmarkov/contenthub/internal/service"
)

type testEnv struct {
	T     *testing.T
	E     *echo.Echo
	DB    *gorm.DB
	Users *repo.UserRepo
	Auth  *service.AuthService
}

var (
	testAccessSecret  = []byte("test-jwt-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Article{}))

	users := &repo.UserRepo{DB: db, BcryptCost: 4}
	articles := &repo.ArticleRepo{DB: db}

	authSvc := &service.AuthService{
		Users:         users,
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}
	articleSvc := &service.ArticleService{
		Articles: articles,
		Index:    "articles",
	}

	e := echo.New()
	Register(e, &Deps{
		DB:              db,
		AuthHandler:     &AuthHTTP{Svc: authSvc},
		ArticleHandler:  &ArticleHTTP{Svc: articleSvc},
		AuthMW:          middleware.NewAuth(users, testAccessSecret),
		LoginRateWindow: 15 * time.Minute,
		LoginRateLimit:  5,
	})

	return &testEnv{T: t, E: e, DB: db, Users: users, Auth: authSvc}
}

func (env *testEnv) doJSON(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) register(username, password, role string) *httptest.ResponseRecorder {
	return env.doJSON(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": username,
		"password": password,
		"role":     role,
	})
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}

func (env *testEnv) login(username, password string) loginResponse {
	env.T.Helper()

	rec := env.doJSON(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(env.T, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}
