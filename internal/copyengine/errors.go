package copyengine

import "errors"

var (
	ErrSameTenant      = errors.New("source and target tenant must differ")
	ErrEmptySelection  = errors.New("at least one module item must be selected")
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrInvalidStrategy = errors.New("conflict strategy must be \"skip\" or \"suffix\"")
)
