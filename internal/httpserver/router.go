package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/dmarkov/contenthub/internal/middleware"
	"github.com/dmarkov/contenthub/internal/models"
)

type Deps struct {
	DB             *gorm.DB
	AuthHandler    *AuthHTTP
	ArticleHandler *ArticleHTTP
	AuthMW         *middleware.Auth

	LoginRateWindow time.Duration
	LoginRateLimit  int
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		sqlDB, err := d.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	v1 := e.Group("/api/v1")

	loginLimiter := echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(d.LoginRateLimit) / d.LoginRateWindow.Seconds()),
			Burst:     d.LoginRateLimit,
			ExpiresIn: d.LoginRateWindow,
		}),
	})

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login, loginLimiter)
	auth.POST("/refresh", d.AuthHandler.Refresh)

	articles := v1.Group("/articles")
	articles.GET("", d.ArticleHandler.GetArticles)
	articles.GET("/:id", d.ArticleHandler.GetArticle)

	writes := v1.Group("/articles", d.AuthMW.RequireAuth)
	writes.POST("", d.ArticleHandler.CreateArticle, middleware.RequireRole(models.RoleAdmin, models.RoleEditor))
	writes.PATCH("/:id", d.ArticleHandler.PatchArticle, middleware.RequireRole(models.RoleAdmin, models.RoleEditor))
	writes.DELETE("/:id", d.ArticleHandler.DeleteArticle, middleware.RequireRole(models.RoleAdmin))

	v1.GET("/search", d.ArticleHandler.Search)
}
