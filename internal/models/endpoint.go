package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Endpoint is a tenant-defined generated API route. The path+method pair
// is unique per tenant. QueryConfig and AuthConfig are opaque to everything
// except the dynamic-API executor.
type Endpoint struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	TenantID    uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name        string          `json:"name" db:"name"`
	Path        string          `json:"path" db:"path"`
	Method      string          `json:"method" db:"method"`
	EntityID    *uuid.UUID      `json:"entity_id,omitempty" db:"entity_id"`
	QueryConfig json.RawMessage `json:"query_config" db:"query_config"`
	AuthConfig  json.RawMessage `json:"auth_config" db:"auth_config"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
