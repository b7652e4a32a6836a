package model

import "time"

// User is an account allowed to submit the prediction form.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"username"`
	Password     string    `gorm:"type:varchar(255);not null" json:"-"`
	PasswordSalt string    `gorm:"type:varchar(64);not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
