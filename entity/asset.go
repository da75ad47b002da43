package entity

import "time"

type Purpose string

const (
	PurposeThumbnail Purpose = "thumbnail"
	PurposeGallery   Purpose = "gallery"
	PurposeVideo     Purpose = "video"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeThumbnail, PurposeGallery, PurposeVideo:
		return true
	}
	return false
}

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// Asset is one stored media object attached to an owning entity through the
// generic (entity_type, entity_id) pair. There is no foreign key on entity_id.
type Asset struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	EntityType string    `json:"entity_type" gorm:"type:varchar(64);not null;index:idx_assets_entity"`
	EntityID   int64     `json:"entity_id" gorm:"not null;index:idx_assets_entity"`
	Purpose    Purpose   `json:"purpose" gorm:"type:varchar(32);not null"`
	URL        string    `json:"url" gorm:"type:varchar(2048);not null"`
	StorageKey string    `json:"storage_key" gorm:"type:varchar(1024)"`
	Kind       MediaKind `json:"kind" gorm:"type:varchar(16);not null"`
	MimeType   string    `json:"mime_type" gorm:"type:varchar(255)"`
	SortOrder  int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Asset) TableName() string {
	return "assets"
}
