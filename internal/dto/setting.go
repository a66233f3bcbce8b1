package dto

import (
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
)

// PutSettingRequest declares or replaces a typed setting.
type PutSettingRequest struct {
	Kind        domain.SettingKind `json:"kind" binding:"required,oneof=STRING INT DECIMAL BOOL DURATION"`
	Value       string             `json:"value"`
	Description string             `json:"description"`
}

// SettingResponse defines the data returned for a setting.
type SettingResponse struct {
	Key           string             `json:"key"`
	Kind          domain.SettingKind `json:"kind"`
	Value         string             `json:"value"`
	Description   string             `json:"description,omitempty"`
	LastUpdatedAt time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy string             `json:"lastUpdatedBy"`
}

// ToSettingResponse converts a domain.Setting to its DTO.
func ToSettingResponse(s *domain.Setting) SettingResponse {
	return SettingResponse{
		Key:           s.Key,
		Kind:          s.Value.Kind(),
		Value:         s.Value.Raw(),
		Description:   s.Description,
		LastUpdatedAt: s.LastUpdatedAt,
		LastUpdatedBy: s.LastUpdatedBy,
	}
}

// ToListSettingResponse converts a slice of settings.
func ToListSettingResponse(settings []domain.Setting) []SettingResponse {
	res := make([]SettingResponse, len(settings))
	for i := range settings {
		res[i] = ToSettingResponse(&settings[i])
	}
	return res
}
