package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dmarkov/contenthub/internal/hash"
	"github.com/dmarkov/contenthub/internal/models"
)

var (
	ErrDuplicateUsername = errors.New("username already taken")
	ErrUserNotFound      = errors.New("user not found")
)

type UserRepo struct {
	DB         *gorm.DB
	BcryptCost int
}

// CreateUser hashes the password before the row is written, so plaintext
// never reaches storage. Role input is coerced onto the closed role set.
func (r *UserRepo) CreateUser(ctx context.Context, username, password, role string) (*models.User, error) {
	pwHash, err := hash.HashPassword(password, r.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		PasswordHash: pwHash,
		Role:         models.ParseRole(role),
	}

	tx := r.DB.WithContext(ctx).Where("username = ?", username).FirstOrCreate(&user)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, ErrDuplicateUsername
	}
	return &user, nil
}

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) ByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SetRefreshToken overwrites the single outstanding refresh token for the
// user. A single-column UPDATE keyed by primary key is atomic on the
// database side, which is all the invalidation ordering needs.
func (r *UserRepo) SetRefreshToken(ctx context.Context, userID uint, token string) error {
	tx := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token", token)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
