package models

import (
	"time"

	"github.com/google/uuid"
)

// Transformation is one completed metered operation, kept for the
// dashboard history and usage chart.
type Transformation struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	OriginalText    string    `gorm:"type:text;not null" json:"original_text"`
	TransformedText string    `gorm:"type:text;not null" json:"transformed_text"`
	Tone            string    `gorm:"size:20" json:"tone"`
	Length          string    `gorm:"size:20" json:"length"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}
