package service

import (
	"context"
	"errors"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/dmarkov/contenthub/internal/logging"
	"github.com/dmarkov/contenthub/internal/models"
	"github.com/dmarkov/contenthub/internal/mykafka"
	"github.com/dmarkov/contenthub/internal/repo"
	"github.com/dmarkov/contenthub/internal/service/search"
)

// ErrSearchUnavailable is returned when no search backend is configured.
var ErrSearchUnavailable = errors.New("search is unavailable")

type ArticleService struct {
	Articles *repo.ArticleRepo
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (s *ArticleService) Create(ctx context.Context, title, body string, authorID uint) (*models.Article, error) {
	article := &models.Article{
		Title:    title,
		Body:     body,
		AuthorID: authorID,
	}
	if err := s.Articles.Create(ctx, article); err != nil {
		return nil, err
	}

	s.index(ctx, article)
	s.publish(ctx, "article_created", article)
	return article, nil
}

func (s *ArticleService) Get(ctx context.Context, id uint) (*models.Article, error) {
	return s.Articles.ByID(ctx, id)
}

func (s *ArticleService) List(ctx context.Context, offset, limit int) (int64, []models.Article, error) {
	return s.Articles.List(ctx, offset, limit)
}

// Update applies only the fields the caller supplied; a nil field leaves the
// stored value untouched.
func (s *ArticleService) Update(ctx context.Context, id uint, title, body *string) (*models.Article, error) {
	article, err := s.Articles.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if title != nil {
		article.Title = *title
	}
	if body != nil {
		article.Body = *body
	}
	if err := s.Articles.Save(ctx, article); err != nil {
		return nil, err
	}

	s.index(ctx, article)
	s.publish(ctx, "article_updated", article)
	return article, nil
}

func (s *ArticleService) Delete(ctx context.Context, id uint) error {
	if err := s.Articles.Delete(ctx, id); err != nil {
		return err
	}

	if s.ES != nil {
		if err := search.DeleteArticle(ctx, s.ES, s.Index, id); err != nil {
			logging.FromContext(ctx).Error("es delete error", "error", err, "article_id", id)
		}
	}
	s.publish(ctx, "article_deleted", &models.Article{ID: id})
	return nil
}

func (s *ArticleService) Search(ctx context.Context, query string, from, size int) (int64, []models.Article, error) {
	if s.ES == nil {
		return 0, nil, ErrSearchUnavailable
	}
	return search.Search(ctx, s.ES, s.Index, query, from, size)
}

// Indexing and event publication are best effort: a search or broker outage
// must not fail the write that already committed.
func (s *ArticleService) index(ctx context.Context, article *models.Article) {
	if s.ES == nil {
		return
	}
	if err := search.IndexArticle(ctx, s.ES, s.Index, article); err != nil {
		logging.FromContext(ctx).Error("es index error", "error", err, "article_id", article.ID)
	}
}

func (s *ArticleService) publish(ctx context.Context, eventType string, article *models.Article) {
	event := map[string]interface{}{
		"type":       eventType,
		"article_id": article.ID,
		"title":      article.Title,
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.Producer.PublishEvent(pubCtx, "article_events", article.Title, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
