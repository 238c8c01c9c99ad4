package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PdfTemplate struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	TenantID  uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name      string          `json:"name" db:"name"`
	Slug      string          `json:"slug" db:"slug"`
	EntityID  *uuid.UUID      `json:"entity_id,omitempty" db:"entity_id"`
	Layout    json.RawMessage `json:"layout" db:"layout"`
	Content   json.RawMessage `json:"content" db:"content"`
	Published bool            `json:"published" db:"published"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
