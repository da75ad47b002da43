package entity

import (
	"time"

	"gorm.io/datatypes"
)

type Product struct {
	ID          int64             `json:"id" gorm:"primaryKey;autoIncrement"`
	Slug        string            `json:"slug" gorm:"type:varchar(50);uniqueIndex;not null"`
	Name        string            `json:"name" gorm:"type:varchar(100);not null"`
	Description string            `json:"description" gorm:"type:text"`
	Price       float64           `json:"price" gorm:"type:numeric(10,2);not null;default:0"`
	IsActive    bool              `json:"is_active" gorm:"not null"`
	Attributes  datatypes.JSONMap `json:"attributes,omitempty"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// PublicProduct is the shape served by the cached public listing.
type PublicProduct struct {
	ID           int64             `json:"id"`
	Slug         string            `json:"slug"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Price        float64           `json:"price"`
	Attributes   datatypes.JSONMap `json:"attributes,omitempty"`
	ThumbnailURL string            `json:"thumbnail_url,omitempty"`
	Gallery      []Asset           `json:"gallery"`
	Videos       []Asset           `json:"videos"`
}
