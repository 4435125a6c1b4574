package passwordchange

import "time"

// PasswordChange is the evolving audit record for one user's current
// rate-limit window.
type PasswordChange struct {
	ID              int64     `gorm:"primaryKey"`
	UserID          int64     `gorm:"column:user_id;not null;index"`
	OldPasswordHash string    `gorm:"column:old_password_hash"`
	NewPasswordHash string    `gorm:"column:new_password_hash"`
	ChangesCount    int       `gorm:"column:changes_count;default:0"`
	LastChangeDate  time.Time `gorm:"column:last_change_date;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time `gorm:"column:updated_at;default:now()"`
}

func (PasswordChange) TableName() string {
	return "password_changes"
}
