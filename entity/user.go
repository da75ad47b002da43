package entity

import "time"

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	DisplayName  *string   `json:"display_name" gorm:"type:varchar(30)"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Permission rows are created empty at registration and assigned by an operator.
type Permission struct {
	ID     int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID int64   `json:"user_id" gorm:"not null;index"`
	Name   *string `json:"name" gorm:"type:varchar(64);index"`
}
