package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/user-management/internal/core/database"
	changeDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/passwordchange"
	userDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/user"
	"github.com/frahmantamala/user-management/internal/passwordchange"
)

type PasswordChangeRepository struct {
	db *gorm.DB
}

func NewPasswordChangeRepository(db *gorm.DB) passwordchange.RepositoryAPI {
	return &PasswordChangeRepository{db: db}
}

func (r *PasswordChangeRepository) UserPasswordHash(ctx context.Context, userID int64) (string, error) {
	db := database.FromContext(ctx, r.db)

	var row userDatamodel.User
	if err := db.Select("password_hash").Where("id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return row.PasswordHash, nil
}

func (r *PasswordChangeRepository) UpdateUserPasswordHash(ctx context.Context, userID int64, hash string) error {
	db := database.FromContext(ctx, r.db)
	return db.Model(&userDatamodel.User{}).Where("id = ?", userID).
		Update("password_hash", hash).Error
}

func (r *PasswordChangeRepository) LatestRecord(ctx context.Context, userID int64) (*passwordchange.Record, error) {
	db := database.FromContext(ctx, r.db)

	var row changeDatamodel.PasswordChange
	err := db.Where("user_id = ?", userID).Order("created_at DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &passwordchange.Record{
		ID:              row.ID,
		UserID:          row.UserID,
		OldPasswordHash: row.OldPasswordHash,
		NewPasswordHash: row.NewPasswordHash,
		ChangesCount:    row.ChangesCount,
		LastChangeDate:  row.LastChangeDate,
	}, nil
}

func (r *PasswordChangeRepository) SaveRecord(ctx context.Context, record *passwordchange.Record) error {
	db := database.FromContext(ctx, r.db)

	row := changeDatamodel.PasswordChange{
		ID:              record.ID,
		UserID:          record.UserID,
		OldPasswordHash: record.OldPasswordHash,
		NewPasswordHash: record.NewPasswordHash,
		ChangesCount:    record.ChangesCount,
		LastChangeDate:  record.LastChangeDate,
	}
	if err := db.Save(&row).Error; err != nil {
		return err
	}
	record.ID = row.ID
	return nil
}
