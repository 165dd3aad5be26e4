package entity

import (
	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/enum"
)

// DocumentCounter is the last sequence number handed out for a tenant,
// document scope and calendar year.
type DocumentCounter struct {
	TenantID uuid.UUID          `gorm:"type:uuid;primaryKey" json:"tenant_id"`
	Scope    enum.DocumentScope `gorm:"size:10;primaryKey" json:"scope"`
	Year     int                `gorm:"primaryKey" json:"year"`
	Value    int64              `gorm:"not null;default:0" json:"value"`
}

// TableName returns the table name for the DocumentCounter model
func (DocumentCounter) TableName() string {
	return "document_counters"
}
