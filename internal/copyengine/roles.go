package copyengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// roleCopier runs first: data record visibility lists reference role ids,
// so the role map must be populated before any record is copied. A role
// skipped under the skip strategy still resolves the existing target role
// by name, keeping it usable as a remap target.
type roleCopier struct {
	ids []uuid.UUID
}

func (roleCopier) name() string { return "roles" }

func (c roleCopier) run(ctx context.Context, s Store, cc *copyContext) error {
	if len(c.ids) == 0 {
		return nil
	}

	src, err := s.ListRolesByIDs(ctx, cc.source, c.ids)
	if err != nil {
		return fmt.Errorf("load source roles: %w", err)
	}
	existing, err := s.ListRoles(ctx, cc.target)
	if err != nil {
		return fmt.Errorf("load target roles: %w", err)
	}

	set := newNameSet()
	for _, r := range existing {
		set.add(r.Name, r.ID)
	}

	for _, r := range src {
		res := resolveConflict(cc.strategy, set, func(n int) candidate {
			name := suffixName(r.Name, n)
			return candidate{name: name, key: name}
		})
		if res.skip {
			if res.existingID != uuid.Nil {
				cc.mapRole(r.ID, res.existingID)
			}
			cc.skipf("role %q already exists in target tenant", r.Name)
			continue
		}

		cp := r
		cp.ID = uuid.Nil
		cp.TenantID = cc.target
		cp.Name = res.name
		cp.IsSystem = false // copies are always regular roles

		newID, err := s.InsertRole(ctx, cp)
		if err != nil {
			return fmt.Errorf("insert role %q: %w", cp.Name, err)
		}
		cc.mapRole(r.ID, newID)
		cc.result.Copied.Roles++
	}
	return nil
}
