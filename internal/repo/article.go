package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dmarkov/contenthub/internal/models"
)

var ErrArticleNotFound = errors.New("article not found")

type ArticleRepo struct {
	DB *gorm.DB
}

func (r *ArticleRepo) Create(ctx context.Context, article *models.Article) error {
	return r.DB.WithContext(ctx).Create(article).Error
}

func (r *ArticleRepo) ByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := r.DB.WithContext(ctx).First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

func (r *ArticleRepo) List(ctx context.Context, offset, limit int) (int64, []models.Article, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Article{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Article
	if err := r.DB.WithContext(ctx).Model(&models.Article{}).
		Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *ArticleRepo) Save(ctx context.Context, article *models.Article) error {
	return r.DB.WithContext(ctx).Save(article).Error
}

func (r *ArticleRepo) Delete(ctx context.Context, id uint) error {
	tx := r.DB.WithContext(ctx).Delete(&models.Article{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrArticleNotFound
	}
	return nil
}
