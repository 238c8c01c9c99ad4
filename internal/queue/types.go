package queue

import (
	"github.com/hbnoboa/CRM-Builder-sub000/internal/copyengine"
)

const (
	TypeTenantCopy = "tenant:copy"
)

type TenantCopyPayload struct {
	Request     copyengine.Request `json:"request"`
	RequestedBy string             `json:"requested_by,omitempty"`
}
