package copyengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// templateCopier copies document templates. Copies always land
// unpublished, whatever the source state.
type templateCopier struct {
	ids []uuid.UUID
}

func (templateCopier) name() string { return "pdfTemplates" }

func (c templateCopier) run(ctx context.Context, s Store, cc *copyContext) error {
	if len(c.ids) == 0 {
		return nil
	}

	src, err := s.ListPdfTemplatesByIDs(ctx, cc.source, c.ids)
	if err != nil {
		return fmt.Errorf("load source templates: %w", err)
	}
	existing, err := s.ListPdfTemplates(ctx, cc.target)
	if err != nil {
		return fmt.Errorf("load target templates: %w", err)
	}

	set := newNameSet()
	for _, t := range existing {
		set.add(t.Slug, t.ID)
	}

	for _, t := range src {
		res := resolveConflict(cc.strategy, set, func(n int) candidate {
			return candidate{name: suffixName(t.Name, n), key: suffixSlug(t.Slug, n)}
		})
		if res.skip {
			cc.skipf("pdf template %q (slug %q) already exists in target tenant", t.Name, t.Slug)
			continue
		}

		cp := t
		cp.ID = uuid.Nil
		cp.TenantID = cc.target
		cp.Name = res.name
		cp.Slug = res.key
		cp.Published = false
		cp.EntityID = remapEntityRef(cc, t.EntityID, func() {
			cc.warnf("pdf template %q: referenced entity was not copied, reference dropped", t.Name)
		})

		if _, err := s.InsertPdfTemplate(ctx, cp); err != nil {
			return fmt.Errorf("insert pdf template %q: %w", cp.Slug, err)
		}
		cc.result.Copied.PdfTemplates++
	}
	return nil
}
