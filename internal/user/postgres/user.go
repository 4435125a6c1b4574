package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/user-management/internal/core/database"
	changeDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/passwordchange"
	rbacDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/rbac"
	tokenDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/token"
	userDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/user"
	"github.com/frahmantamala/user-management/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func toDomain(row userDatamodel.User) user.User {
	return user.User{
		ID:         row.ID,
		Name:       row.Name,
		Email:      row.Email,
		Verified:   row.Verified,
		Visibility: row.Visibility,
		Country:    row.Country,
		Phone:      row.Phone,
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	db := database.FromContext(ctx, r.db)

	var row userDatamodel.User
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	found := toDomain(row)
	return &found, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	db := database.FromContext(ctx, r.db)

	var row userDatamodel.User
	if err := db.Where("email = ?", email).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	found := toDomain(row)
	return &found, nil
}

func (r *UserRepository) Create(ctx context.Context, params user.CreateParams) (*user.User, error) {
	db := database.FromContext(ctx, r.db)

	row := userDatamodel.User{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Verified:     params.Verified,
		Visibility:   params.Visibility,
		Country:      params.Country,
		Phone:        params.Phone,
	}
	if err := db.Create(&row).Error; err != nil {
		return nil, err
	}
	created := toDomain(row)
	return &created, nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	db := database.FromContext(ctx, r.db)
	return db.Model(&userDatamodel.User{}).Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"name":       u.Name,
			"email":      u.Email,
			"verified":   u.Verified,
			"visibility": u.Visibility,
			"country":    u.Country,
			"phone":      u.Phone,
		}).Error
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	db := database.FromContext(ctx, r.db)
	return db.Where("id = ?", id).Delete(&userDatamodel.User{}).Error
}

func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	db := database.FromContext(ctx, r.db)

	var rows []userDatamodel.User
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toDomain(row))
	}
	return users, nil
}

func (r *UserRepository) DetachRoleEdges(ctx context.Context, userID int64) error {
	db := database.FromContext(ctx, r.db)
	return db.Where("user_id = ?", userID).Delete(&rbacDatamodel.UserRole{}).Error
}

func (r *UserRepository) DeleteTokens(ctx context.Context, userID int64) error {
	db := database.FromContext(ctx, r.db)

	if err := db.Where("user_id = ?", userID).Delete(&tokenDatamodel.AccountVerification{}).Error; err != nil {
		return err
	}
	return db.Where("user_id = ?", userID).Delete(&tokenDatamodel.PasswordReset{}).Error
}

func (r *UserRepository) DeletePasswordHistory(ctx context.Context, userID int64) error {
	db := database.FromContext(ctx, r.db)
	return db.Where("user_id = ?", userID).Delete(&changeDatamodel.PasswordChange{}).Error
}
