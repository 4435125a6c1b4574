package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/user-management/internal/core/database"
	tokenDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/token"
	"github.com/frahmantamala/user-management/internal/token"
)

// TokenRepository persists both token ledgers. The two tables are identical
// in shape; purpose picks the table.
type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) token.RepositoryAPI {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Upsert(ctx context.Context, purpose token.Purpose, record *token.Record) error {
	db := database.FromContext(ctx, r.db)

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at"}),
	}

	if purpose == token.PurposeReset {
		row := tokenDatamodel.PasswordReset{
			UserID:    record.UserID,
			Token:     record.Token,
			ExpiresAt: record.ExpiresAt,
		}
		return db.Clauses(onConflict).Create(&row).Error
	}

	row := tokenDatamodel.AccountVerification{
		UserID:    record.UserID,
		Token:     record.Token,
		ExpiresAt: record.ExpiresAt,
	}
	return db.Clauses(onConflict).Create(&row).Error
}

func (r *TokenRepository) FindByToken(ctx context.Context, purpose token.Purpose, tokenValue string) (*token.Record, error) {
	db := database.FromContext(ctx, r.db)

	if purpose == token.PurposeReset {
		var row tokenDatamodel.PasswordReset
		if err := db.Where("token = ?", tokenValue).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return &token.Record{UserID: row.UserID, Token: row.Token, ExpiresAt: row.ExpiresAt}, nil
	}

	var row tokenDatamodel.AccountVerification
	if err := db.Where("token = ?", tokenValue).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token.Record{UserID: row.UserID, Token: row.Token, ExpiresAt: row.ExpiresAt}, nil
}

func (r *TokenRepository) FindByUser(ctx context.Context, purpose token.Purpose, userID int64) (*token.Record, error) {
	db := database.FromContext(ctx, r.db)

	if purpose == token.PurposeReset {
		var row tokenDatamodel.PasswordReset
		if err := db.Where("user_id = ?", userID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return &token.Record{UserID: row.UserID, Token: row.Token, ExpiresAt: row.ExpiresAt}, nil
	}

	var row tokenDatamodel.AccountVerification
	if err := db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token.Record{UserID: row.UserID, Token: row.Token, ExpiresAt: row.ExpiresAt}, nil
}

func (r *TokenRepository) DeleteForUser(ctx context.Context, purpose token.Purpose, userID int64) error {
	db := database.FromContext(ctx, r.db)

	if purpose == token.PurposeReset {
		return db.Where("user_id = ?", userID).Delete(&tokenDatamodel.PasswordReset{}).Error
	}
	return db.Where("user_id = ?", userID).Delete(&tokenDatamodel.AccountVerification{}).Error
}
