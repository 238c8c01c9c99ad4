package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Role struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	TenantID          uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name              string          `json:"name" db:"name"`
	Description       string          `json:"description,omitempty" db:"description"`
	Color             string          `json:"color,omitempty" db:"color"`
	Kind              string          `json:"kind,omitempty" db:"kind"`
	IsSystem          bool            `json:"is_system" db:"is_system"`
	IsDefault         bool            `json:"is_default" db:"is_default"`
	Permissions       json.RawMessage `json:"permissions" db:"permissions"`
	ModulePermissions json.RawMessage `json:"module_permissions" db:"module_permissions"`
	TenantPermissions json.RawMessage `json:"tenant_permissions" db:"tenant_permissions"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}
