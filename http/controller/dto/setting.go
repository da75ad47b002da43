package dto

type SettingInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type"`
	Lang  string `json:"lang"`
}

type UpsertSettingsRequest struct {
	Settings []SettingInput `json:"settings" binding:"required"`
}
