package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Page struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	TenantID  uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Title     string          `json:"title" db:"title"`
	Slug      string          `json:"slug" db:"slug"`
	Content   json.RawMessage `json:"content" db:"content"`
	Published bool            `json:"published" db:"published"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
