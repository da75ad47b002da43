package dto

import (
	"encoding/json"

	"github.com/dedilute/catalog-backend/service"
)

// DeleteByEntityRequest accepts entity_id as a number or a numeric string
type DeleteByEntityRequest struct {
	EntityType string          `json:"entity_type"`
	EntityID   json.RawMessage `json:"entity_id"`
	Purpose    string          `json:"purpose"`
}

type SortMediaRequest struct {
	Items []service.SortItem `json:"items"`
}

type MessageCountResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type MessageIDResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// PartialUploadResponse reports the files stored before an upload batch failed
type PartialUploadResponse struct {
	Error    string      `json:"error"`
	Uploaded interface{} `json:"uploaded"`
}
