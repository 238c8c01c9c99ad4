package copyengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// pageCopier runs last; pages reference nothing else. Copies are always
// unpublished.
type pageCopier struct {
	ids []uuid.UUID
}

func (pageCopier) name() string { return "pages" }

func (c pageCopier) run(ctx context.Context, s Store, cc *copyContext) error {
	if len(c.ids) == 0 {
		return nil
	}

	src, err := s.ListPagesByIDs(ctx, cc.source, c.ids)
	if err != nil {
		return fmt.Errorf("load source pages: %w", err)
	}
	existing, err := s.ListPages(ctx, cc.target)
	if err != nil {
		return fmt.Errorf("load target pages: %w", err)
	}

	set := newNameSet()
	for _, p := range existing {
		set.add(p.Slug, p.ID)
	}

	for _, p := range src {
		res := resolveConflict(cc.strategy, set, func(n int) candidate {
			return candidate{name: suffixName(p.Title, n), key: suffixSlug(p.Slug, n)}
		})
		if res.skip {
			cc.skipf("page %q (slug %q) already exists in target tenant", p.Title, p.Slug)
			continue
		}

		cp := p
		cp.ID = uuid.Nil
		cp.TenantID = cc.target
		cp.Title = res.name
		cp.Slug = res.key
		cp.Published = false

		if _, err := s.InsertPage(ctx, cp); err != nil {
			return fmt.Errorf("insert page %q: %w", cp.Slug, err)
		}
		cc.result.Copied.Pages++
	}
	return nil
}
