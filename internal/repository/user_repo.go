package repository

import (
	"context"
	"time"

	"stocksage/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Touch(ctx context.Context, id string) error
	FindIdleGuests(ctx context.Context, idleSince time.Time, limit int) ([]model.User, error)
	CountGuests(ctx context.Context) (int64, error)
	FindOldestGuests(ctx context.Context, limit int) ([]model.User, error)
	DeleteByIDs(ctx context.Context, ids []string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

// Touch bumps updated_at so pool eviction can order guests by last access.
func (r *userRepository) Touch(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

func (r *userRepository) FindIdleGuests(ctx context.Context, idleSince time.Time, limit int) ([]model.User, error) {
	var users []model.User
	err := GetDB(ctx, r.db).
		Where("role = ? AND updated_at < ?", model.RoleGuest, idleSince).
		Limit(limit).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) CountGuests(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).
		Where("role = ?", model.RoleGuest).Count(&count).Error
	return count, err
}

func (r *userRepository) FindOldestGuests(ctx context.Context, limit int) ([]model.User, error) {
	var users []model.User
	err := GetDB(ctx, r.db).
		Where("role = ?", model.RoleGuest).
		Order("updated_at asc").Limit(limit).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Where("id IN ?", ids).Delete(&model.User{}).Error
}
