package copyengine

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hbnoboa/CRM-Builder-sub000/internal/models"
)

// copyContext is the per-invocation state threaded through every copier:
// three independent old→new id maps, the rows the data passes still need,
// and the result being accumulated. Entries are never overwritten; a
// missing lookup means "not copied" and every caller handles it.
type copyContext struct {
	strategy Strategy
	source   uuid.UUID
	target   uuid.UUID

	roleIDs   map[uuid.UUID]uuid.UUID
	entityIDs map[uuid.UUID]uuid.UUID
	recordIDs map[uuid.UUID]uuid.UUID

	// source entity rows whose id is mapped, in selection order; drives
	// the data and relation-remap passes
	srcEntities []models.Entity
	dataWanted  map[uuid.UUID]bool

	// freshly inserted records per source entity id, for the remap pass
	created map[uuid.UUID][]createdRecord

	result Result
}

type createdRecord struct {
	id   uuid.UUID
	data json.RawMessage
}

func newCopyContext(strategy Strategy, source, target uuid.UUID) *copyContext {
	return &copyContext{
		strategy:   strategy,
		source:     source,
		target:     target,
		roleIDs:    make(map[uuid.UUID]uuid.UUID),
		entityIDs:  make(map[uuid.UUID]uuid.UUID),
		recordIDs:  make(map[uuid.UUID]uuid.UUID),
		dataWanted: make(map[uuid.UUID]bool),
		created:    make(map[uuid.UUID][]createdRecord),
		result:     Result{Skipped: []string{}, Warnings: []string{}},
	}
}

func (c *copyContext) mapRole(old, new uuid.UUID) {
	if _, ok := c.roleIDs[old]; !ok {
		c.roleIDs[old] = new
	}
}

func (c *copyContext) mapEntity(old, new uuid.UUID) {
	if _, ok := c.entityIDs[old]; !ok {
		c.entityIDs[old] = new
	}
}

func (c *copyContext) mapRecord(old, new uuid.UUID) {
	if _, ok := c.recordIDs[old]; !ok {
		c.recordIDs[old] = new
	}
}

func (c *copyContext) skipf(format string, args ...interface{}) {
	c.result.Skipped = append(c.result.Skipped, fmt.Sprintf(format, args...))
}

func (c *copyContext) warnf(format string, args ...interface{}) {
	c.result.Warnings = append(c.result.Warnings, fmt.Sprintf(format, args...))
}
