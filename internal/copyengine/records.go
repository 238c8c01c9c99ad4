package copyengine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hbnoboa/CRM-Builder-sub000/internal/models"
)

// recordCopier copies the data of every selected entity marked
// includeData. Parent-less records go first so their new ids are known;
// children are then copied whenever their parent's id is already mapped,
// rescanning until a pass makes no progress so nesting of any depth
// resolves. Whatever remains has a parent that was never copied and is
// dropped with a warning, never attached to the wrong parent and never
// promoted to parent-less.
type recordCopier struct{}

func (recordCopier) name() string { return "entityData" }

func (c recordCopier) run(ctx context.Context, s Store, cc *copyContext) error {
	var pending []models.EntityData

	for _, e := range cc.srcEntities {
		if !cc.dataWanted[e.ID] {
			continue
		}
		if _, ok := cc.entityIDs[e.ID]; !ok {
			cc.warnf("data of entity %q not copied: entity has no target mapping", e.Slug)
			continue
		}

		rows, err := s.ListEntityData(ctx, cc.source, e.ID)
		if err != nil {
			return fmt.Errorf("load records of entity %q: %w", e.Slug, err)
		}
		for _, rec := range rows {
			if rec.ParentID != nil {
				pending = append(pending, rec)
				continue
			}
			if err := c.insert(ctx, s, cc, rec, nil); err != nil {
				return err
			}
		}
	}

	for len(pending) > 0 {
		progressed := false
		remaining := pending[:0]
		for _, rec := range pending {
			newParent, ok := cc.recordIDs[*rec.ParentID]
			if !ok {
				remaining = append(remaining, rec)
				continue
			}
			if err := c.insert(ctx, s, cc, rec, &newParent); err != nil {
				return err
			}
			progressed = true
		}
		pending = remaining
		if !progressed {
			break
		}
	}

	for _, rec := range pending {
		cc.warnf("record %s not copied: parent record %s was not selected for copy", rec.ID, *rec.ParentID)
	}
	return nil
}

func (recordCopier) insert(ctx context.Context, s Store, cc *copyContext, rec models.EntityData, parentID *uuid.UUID) error {
	cp := rec
	cp.ID = uuid.Nil
	cp.TenantID = cc.target
	cp.EntityID = cc.entityIDs[rec.EntityID]
	cp.ParentID = parentID
	cp.VisibleTo = remapVisibleTo(rec.VisibleTo, cc.roleIDs)
	if len(cp.VisibleTo) > 0 {
		mirror, err := json.Marshal(cp.VisibleTo)
		if err != nil {
			return fmt.Errorf("marshal visibility mirror: %w", err)
		}
		cp.VisibleToJSON = mirror
	}

	newID, err := s.InsertEntityData(ctx, cp)
	if err != nil {
		return fmt.Errorf("insert record (source %s): %w", rec.ID, err)
	}
	cc.mapRecord(rec.ID, newID)
	cc.created[rec.EntityID] = append(cc.created[rec.EntityID], createdRecord{id: newID, data: cp.Data})
	cc.result.Copied.EntityData++
	return nil
}

// remapVisibleTo rewrites a visibility list through the role map. Ids with
// no mapping pass through unchanged: a dangling reference into the source
// tenant is preferred over silently widening visibility.
func remapVisibleTo(roleIDs []uuid.UUID, idMap map[uuid.UUID]uuid.UUID) []uuid.UUID {
	if len(roleIDs) == 0 {
		return nil
	}
	out := make([]uuid.UUID, len(roleIDs))
	for i, id := range roleIDs {
		if mapped, ok := idMap[id]; ok {
			out[i] = mapped
		} else {
			out[i] = id
		}
	}
	return out
}
