package copyengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// endpointCopier copies generated API endpoints. Uniqueness is the
// path+method pair. An endpoint bound to an entity that was not copied is
// still created, with the binding dropped and a warning recorded.
type endpointCopier struct {
	ids []uuid.UUID
}

func (endpointCopier) name() string { return "endpoints" }

func (c endpointCopier) run(ctx context.Context, s Store, cc *copyContext) error {
	if len(c.ids) == 0 {
		return nil
	}

	src, err := s.ListEndpointsByIDs(ctx, cc.source, c.ids)
	if err != nil {
		return fmt.Errorf("load source endpoints: %w", err)
	}
	existing, err := s.ListEndpoints(ctx, cc.target)
	if err != nil {
		return fmt.Errorf("load target endpoints: %w", err)
	}

	set := newNameSet()
	for _, ep := range existing {
		set.add(route(ep.Method, ep.Path), ep.ID)
	}

	for _, ep := range src {
		res := resolveConflict(cc.strategy, set, func(n int) candidate {
			return candidate{
				name: suffixName(ep.Name, n),
				key:  route(ep.Method, suffixSlug(ep.Path, n)),
			}
		})
		if res.skip {
			cc.skipf("endpoint %s %s already exists in target tenant", ep.Method, ep.Path)
			continue
		}

		cp := ep
		cp.ID = uuid.Nil
		cp.TenantID = cc.target
		cp.Name = res.name
		cp.Path = suffixSlug(ep.Path, res.n)
		cp.EntityID = remapEntityRef(cc, ep.EntityID, func() {
			cc.warnf("endpoint %q: referenced entity was not copied, reference dropped", ep.Name)
		})

		if _, err := s.InsertEndpoint(ctx, cp); err != nil {
			return fmt.Errorf("insert endpoint %s %s: %w", cp.Method, cp.Path, err)
		}
		cc.result.Copied.Endpoints++
	}
	return nil
}

// remapEntityRef rewrites an optional entity reference through the entity
// map; an unmapped reference is nulled and onDrop fires once.
func remapEntityRef(cc *copyContext, ref *uuid.UUID, onDrop func()) *uuid.UUID {
	if ref == nil {
		return nil
	}
	if mapped, ok := cc.entityIDs[*ref]; ok {
		return &mapped
	}
	onDrop()
	return nil
}
