package entity

import "time"

type Setting struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Key       string    `json:"key" gorm:"type:varchar(128);not null;uniqueIndex:idx_settings_key_lang"`
	Value     string    `json:"value" gorm:"type:text"`
	Type      string    `json:"type" gorm:"type:varchar(32);not null;default:'text'"`
	Lang      string    `json:"lang" gorm:"type:varchar(8);not null;default:'en';uniqueIndex:idx_settings_key_lang"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type SettingValue struct {
	Value string `json:"value"`
	Type  string `json:"type"`
	Lang  string `json:"lang"`
}
