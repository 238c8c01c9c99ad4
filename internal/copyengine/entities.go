package copyengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// entityCopier copies schema definitions. Field lists are carried over
// verbatim, order included. A skipped entity is resolved to the existing
// target entity with the same slug so selected data can still land in it
// and dependent schema references can still be remapped.
type entityCopier struct {
	selections []EntitySelection
}

func (entityCopier) name() string { return "entities" }

func (c entityCopier) run(ctx context.Context, s Store, cc *copyContext) error {
	if len(c.selections) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(c.selections))
	for _, sel := range c.selections {
		ids = append(ids, sel.ID)
		if sel.IncludeData {
			cc.dataWanted[sel.ID] = true
		}
	}

	src, err := s.ListEntitiesByIDs(ctx, cc.source, ids)
	if err != nil {
		return fmt.Errorf("load source entities: %w", err)
	}
	existing, err := s.ListEntities(ctx, cc.target)
	if err != nil {
		return fmt.Errorf("load target entities: %w", err)
	}

	set := newNameSet()
	for _, e := range existing {
		set.add(e.Slug, e.ID)
	}

	for _, e := range src {
		res := resolveConflict(cc.strategy, set, func(n int) candidate {
			return candidate{name: suffixName(e.Name, n), key: suffixSlug(e.Slug, n)}
		})
		if res.skip {
			cc.skipf("entity %q (slug %q) already exists in target tenant", e.Name, e.Slug)
			if res.existingID != uuid.Nil {
				cc.mapEntity(e.ID, res.existingID)
				cc.srcEntities = append(cc.srcEntities, e)
			}
			continue
		}

		cp := e
		cp.ID = uuid.Nil
		cp.TenantID = cc.target
		cp.Name = res.name
		cp.Slug = res.key

		newID, err := s.InsertEntity(ctx, cp)
		if err != nil {
			return fmt.Errorf("insert entity %q: %w", cp.Slug, err)
		}
		cc.mapEntity(e.ID, newID)
		cc.srcEntities = append(cc.srcEntities, e)
		cc.result.Copied.Entities++
	}
	return nil
}
