package token

import "time"

// AccountVerification holds the single pending verification token for a user.
// user_id is the primary key, so creating a new token for the same user
// replaces the previous one.
type AccountVerification struct {
	UserID    int64     `gorm:"column:user_id;primaryKey"`
	Token     string    `gorm:"column:token;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
}

func (AccountVerification) TableName() string {
	return "account_verifications"
}

// PasswordReset holds the single pending reset token for a user, keyed the
// same way as AccountVerification.
type PasswordReset struct {
	UserID    int64     `gorm:"column:user_id;primaryKey"`
	Token     string    `gorm:"column:token;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
}

func (PasswordReset) TableName() string {
	return "password_resets"
}
