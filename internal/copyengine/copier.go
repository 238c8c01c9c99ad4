package copyengine

import (
	"context"
)

// moduleCopier is one ordered step of a tenant copy: load the selected
// source rows, resolve conflicts against the target, insert, and record
// old→new ids in the copy context. The orchestrator owns the ordering;
// copiers never call each other.
type moduleCopier interface {
	name() string
	run(ctx context.Context, s Store, cc *copyContext) error
}
