package copyengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/hbnoboa/CRM-Builder-sub000/internal/models"
)

// relationRemapPass rewrites relation-field values embedded in the
// payloads of freshly copied records. It runs strictly after all record
// copying: a referenced record may belong to an entity that copied later,
// or to a later row of the same entity, so inline rewriting during insert
// would miss mappings. Only payloads that actually change are written
// back, which also makes the pass idempotent.
type relationRemapPass struct{}

func (relationRemapPass) name() string { return "relations" }

func (relationRemapPass) run(ctx context.Context, s Store, cc *copyContext) error {
	if len(cc.created) == 0 {
		return nil
	}

	// relation fields are only trusted when their target slug resolves
	// against the source tenant's entities
	srcEntities, err := s.ListEntities(ctx, cc.source)
	if err != nil {
		return fmt.Errorf("load source entities: %w", err)
	}
	slugs := make(map[string]bool, len(srcEntities))
	for _, e := range srcEntities {
		slugs[e.Slug] = true
	}

	for _, e := range cc.srcEntities {
		var relFields []models.Field
		for _, f := range e.Fields {
			if f.Type == models.FieldTypeRelation && f.Relation != "" && slugs[f.Relation] {
				relFields = append(relFields, f)
			}
		}
		if len(relFields) == 0 {
			continue
		}

		for _, rec := range cc.created[e.ID] {
			data := rec.data
			changed := false
			for _, f := range relFields {
				next, ok, err := remapRelationValue(data, f.Slug, cc.recordIDs)
				if err != nil {
					return fmt.Errorf("remap field %q of record %s: %w", f.Slug, rec.id, err)
				}
				if ok {
					data = next
					changed = true
				}
			}
			if !changed {
				continue
			}
			if err := s.UpdateEntityDataPayload(ctx, cc.target, rec.id, data); err != nil {
				return fmt.Errorf("write remapped record %s: %w", rec.id, err)
			}
		}
	}
	return nil
}

// remapRelationValue rewrites one relation field inside a payload: a
// single record id is replaced when mapped, an array is mapped element by
// element. Unmapped ids pass through so a reference into an uncopied
// record dangles instead of corrupting the value. Returns false when
// nothing changed.
func remapRelationValue(data []byte, path string, idMap map[uuid.UUID]uuid.UUID) ([]byte, bool, error) {
	v := gjson.GetBytes(data, path)
	switch {
	case v.Type == gjson.String:
		old, err := uuid.Parse(v.Str)
		if err != nil {
			return data, false, nil // not an id, leave it alone
		}
		mapped, ok := idMap[old]
		if !ok {
			return data, false, nil
		}
		out, err := sjson.SetBytes(data, path, mapped.String())
		if err != nil {
			return nil, false, err
		}
		return out, true, nil

	case v.IsArray():
		items := v.Array()
		out := make([]string, 0, len(items))
		changed := false
		for _, item := range items {
			raw := item.String()
			if old, err := uuid.Parse(raw); err == nil {
				if mapped, ok := idMap[old]; ok {
					out = append(out, mapped.String())
					changed = true
					continue
				}
			}
			out = append(out, raw)
		}
		if !changed {
			return data, false, nil
		}
		next, err := sjson.SetBytes(data, path, out)
		if err != nil {
			return nil, false, err
		}
		return next, true, nil

	default:
		return data, false, nil
	}
}
