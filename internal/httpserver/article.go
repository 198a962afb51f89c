package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dmarkov/contenthub/internal/middleware"
	"github.com/dmarkov/contenthub/internal/repo"
	"github.com/dmarkov/contenthub/internal/service"
	"github.com/dmarkov/contenthub/internal/util"
)

type ArticleHTTP struct {
	Svc *service.ArticleService
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ArticleHTTP) GetArticle(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}

	article, err := h.Svc.Get(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrArticleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "article not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load article")
	}

	return c.JSON(http.StatusOK, article)
}

func (h *ArticleHTTP) GetArticles(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.List(c.Request().Context(), offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list articles")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ArticleHTTP) CreateArticle(c echo.Context) error {
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	authorID, ok := c.Get(middleware.ContextUserID).(uint)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	article, err := h.Svc.Create(c.Request().Context(), req.Title, req.Body, authorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create article")
	}

	return c.JSON(http.StatusCreated, article)
}

func (h *ArticleHTTP) PatchArticle(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}

	var req struct {
		Title *string `json:"title"`
		Body  *string `json:"body"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title != nil && *req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	article, err := h.Svc.Update(c.Request().Context(), uint(id), req.Title, req.Body)
	if err != nil {
		if errors.Is(err, repo.ErrArticleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "article not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update article")
	}

	return c.JSON(http.StatusOK, article)
}

func (h *ArticleHTTP) DeleteArticle(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}

	if err := h.Svc.Delete(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, repo.ErrArticleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "article not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete article")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ArticleHTTP) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, articles, err := h.Svc.Search(c.Request().Context(), q, from, limit)
	if err != nil {
		if errors.Is(err, service.ErrSearchUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "search is unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "articles": articles})
}
