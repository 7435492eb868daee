package spawner

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	hcllib "github.com/hashicorp/hcl/v2"

	"github.com/vk/prefabgo/internal/assets"
	"github.com/vk/prefabgo/internal/ctxlog"
	"github.com/vk/prefabgo/internal/hcl"
	"github.com/vk/prefabgo/internal/model"
	"github.com/vk/prefabgo/internal/overrides"
	"github.com/vk/prefabgo/internal/registry"
	"github.com/vk/prefabgo/internal/world"
)

var (
	// ErrSourceMismatch reports an instance whose source document is not
	// the variant the instance declares.
	ErrSourceMismatch = errors.New("instance does not match its source document")

	// ErrNotLoaded reports a spawn against a handle whose document never
	// parsed.
	ErrNotLoaded = errors.New("prefab document is not loaded")
)

// Placeholder marks an entity standing in for an instance whose source
// document was not ready at spawn time.
type Placeholder struct {
	Variant string
	Path    string
}

var placeholderType = reflect.TypeOf(Placeholder{})

// Options adjusts a top-level spawn.
type Options struct {
	// Parent, when set, becomes the parent of the spawned root.
	Parent *world.Entity

	// Transform is layered field-wise over the document's own transform.
	Transform *model.TransformPatch

	// Data is layered key-wise over the document's defaults block before
	// the payload is decoded.
	Data map[string]hcllib.Expression
}

// Spawner instantiates prefab documents into worlds.
type Spawner struct {
	server   *assets.Server
	registry *registry.Registry
	evalCtx  *hcllib.EvalContext

	mu      sync.Mutex
	pending []*pendingInstance
}

type pendingInstance struct {
	w        *world.World
	entity   world.Entity
	fromPath string
	instance *model.Instance
}

// New returns a spawner drawing documents from server and descriptors from
// reg.
func New(server *assets.Server, reg *registry.Registry) *Spawner {
	return &Spawner{
		server:   server,
		registry: reg,
		evalCtx:  hcl.BaseEvalContext(),
	}
}

// Spawn instantiates the document behind handle into w and returns the root
// entity. On any decode, validation, or construct failure every entity the
// call created is removed before the error is returned.
func (s *Spawner) Spawn(ctx context.Context, w *world.World, handle *assets.Handle, opts Options) (world.Entity, error) {
	doc := handle.Document()
	if doc == nil {
		return world.Entity{}, fmt.Errorf("%w: %s: %v", ErrNotLoaded, handle.Path(), handle.Err())
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Spawning prefab.", "path", handle.Path(), "variant", doc.Variant)

	root := w.Spawn()
	if opts.Parent != nil {
		if err := w.SetParent(root, *opts.Parent); err != nil {
			w.Despawn(root)
			return world.Entity{}, err
		}
	}

	err := s.populate(ctx, w, doc, root, overlay{
		transform:  opts.Transform,
		data:       opts.Data,
		components: nil,
	})
	if err != nil {
		w.Despawn(root)
		return world.Entity{}, err
	}
	return root, nil
}

// overlay carries the per-instance overrides layered onto a document as it
// is instantiated.
type overlay struct {
	transform  *model.TransformPatch
	data       map[string]hcllib.Expression
	components []*model.Component
}

// populate fills root with the document's content. root already exists and
// is already parented; everything populate creates hangs under it, so the
// caller rolls back by despawning root.
func (s *Spawner) populate(ctx context.Context, w *world.World, doc *model.Document, root world.Entity, ov overlay) error {
	desc, ok := s.registry.Prefab(doc.Variant)
	if !ok {
		return fmt.Errorf("document %s: unknown variant %q", doc.Path, doc.Variant)
	}

	transform := model.IdentityTransform()
	ov.transform.Over(doc.Transform).ApplyTo(&transform)
	if err := w.SetComponent(root, transform); err != nil {
		return err
	}

	data, err := desc.Decode(ctx, overrides.Attrs(ov.data, doc.Defaults), s.evalCtx)
	if err != nil {
		return fmt.Errorf("document %s: %w", doc.Path, err)
	}

	// Everything hangs under root from the moment it exists, so a failed
	// populate rolls back with a single recursive despawn of root.
	entityMap := world.NewEntityMap()
	if doc.ID != nil {
		// The document id names the root, so entities can parent under it
		// explicitly and components can reference it.
		entityMap.Insert(*doc.ID, root)
	}
	for _, ent := range doc.Entities {
		e := w.Spawn()
		if err := w.SetParent(e, root); err != nil {
			return err
		}
		entityMap.Insert(ent.ID, e)
	}
	for _, inst := range doc.Instances {
		e := w.Spawn()
		if err := w.SetParent(e, root); err != nil {
			return err
		}
		entityMap.Insert(inst.ID, e)
	}

	for _, ent := range doc.Entities {
		e, _ := entityMap.Get(ent.ID)
		if err := s.attach(w, e, ent.Parent, root, entityMap); err != nil {
			return fmt.Errorf("entity %d: %w", ent.ID, err)
		}
		if err := s.applyComponents(ctx, w, e, ent.Components, entityMap); err != nil {
			return fmt.Errorf("entity %d: %w", ent.ID, err)
		}
	}

	for _, inst := range doc.Instances {
		e, _ := entityMap.Get(inst.ID)
		if err := s.attach(w, e, inst.Parent, root, entityMap); err != nil {
			return fmt.Errorf("instance %d: %w", inst.ID, err)
		}
		if err := s.spawnInstance(ctx, w, doc.Path, inst, e, entityMap); err != nil {
			return fmt.Errorf("instance %d (%s): %w", inst.ID, inst.Variant, err)
		}
	}

	if err := s.applyComponents(ctx, w, root, ov.components, entityMap); err != nil {
		return err
	}

	if desc.Construct != nil {
		if err := desc.Construct(ctx, w, root, data); err != nil {
			return fmt.Errorf("variant %q construct: %w", doc.Variant, err)
		}
	}
	return nil
}

// attach parents e under the entity its declared parent id maps to, or
// under root when no parent is declared.
func (s *Spawner) attach(w *world.World, e world.Entity, parentID *uint64, root world.Entity, entityMap *world.EntityMap) error {
	parent := root
	if parentID != nil {
		var err error
		parent, err = entityMap.Resolve(*parentID)
		if err != nil {
			return err
		}
	}
	return w.SetParent(e, parent)
}

func (s *Spawner) applyComponents(ctx context.Context, w *world.World, e world.Entity, components []*model.Component, entityMap *world.EntityMap) error {
	for _, comp := range components {
		desc, ok := s.registry.Component(comp.Type)
		if !ok {
			return fmt.Errorf("unknown component %q", comp.Type)
		}
		value, err := desc.Decode(ctx, comp.Attrs, s.evalCtx)
		if err != nil {
			return err
		}
		// MapEntities mutates, so hand it an addressable copy.
		pv := reflect.New(reflect.TypeOf(value))
		pv.Elem().Set(reflect.ValueOf(value))
		if resolver, ok := pv.Interface().(world.EntityResolver); ok {
			if err := resolver.MapEntities(entityMap); err != nil {
				return fmt.Errorf("component %q: %w", comp.Type, err)
			}
			value = pv.Elem().Interface()
		}
		if err := w.SetComponent(e, value); err != nil {
			return fmt.Errorf("component %q: %w", comp.Type, err)
		}
	}
	return nil
}

// spawnInstance fills e, the entity already spawned for an instance block,
// with the instance's content. An instance with an unready source becomes a
// placeholder; a ready source is validated against the instance and its
// document is populated into e with the instance's overrides layered on.
func (s *Spawner) spawnInstance(ctx context.Context, w *world.World, fromPath string, inst *model.Instance, e world.Entity, entityMap *world.EntityMap) error {
	desc, ok := s.registry.Prefab(inst.Variant)
	if !ok {
		return fmt.Errorf("unknown variant %q", inst.Variant)
	}

	if inst.Source == nil {
		if desc.RequiresSource {
			return fmt.Errorf("variant %q requires a source block", inst.Variant)
		}
		return s.spawnProcedural(ctx, w, inst, desc, e, entityMap)
	}

	depHandle, err := s.server.Resolve(ctx, fromPath, inst.Source.Path)
	if err != nil {
		return err
	}
	if depHandle.State() != assets.StateReady {
		return s.placehold(ctx, w, fromPath, inst, e, depHandle)
	}

	srcDoc := depHandle.Document()
	if err := validateSource(inst, desc, srcDoc); err != nil {
		return err
	}

	return s.populate(ctx, w, srcDoc, e, overlay{
		transform:  inst.Transform,
		data:       inst.Data,
		components: inst.Components,
	})
}

// spawnProcedural handles source-less instances: the variant's construct
// hook produces the content instead of a document.
func (s *Spawner) spawnProcedural(ctx context.Context, w *world.World, inst *model.Instance, desc *registry.PrefabDescriptor, e world.Entity, entityMap *world.EntityMap) error {
	transform := model.IdentityTransform()
	inst.Transform.ApplyTo(&transform)
	if err := w.SetComponent(e, transform); err != nil {
		return err
	}

	data, err := desc.Decode(ctx, inst.Data, s.evalCtx)
	if err != nil {
		return err
	}
	if err := s.applyComponents(ctx, w, e, inst.Components, entityMap); err != nil {
		return err
	}
	if desc.Construct != nil {
		if err := desc.Construct(ctx, w, e, data); err != nil {
			return fmt.Errorf("variant %q construct: %w", inst.Variant, err)
		}
	}
	return nil
}

// placehold tags e as a stand-in and queues the instance for a later
// ProcessPending pass.
func (s *Spawner) placehold(ctx context.Context, w *world.World, fromPath string, inst *model.Instance, e world.Entity, depHandle *assets.Handle) error {
	logger := ctxlog.FromContext(ctx)
	logger.Warn("Source not ready, spawning placeholder.",
		"variant", inst.Variant,
		"source", depHandle.Path(),
		"state", depHandle.State().String(),
	)

	transform := model.IdentityTransform()
	inst.Transform.ApplyTo(&transform)
	if err := w.SetComponent(e, transform); err != nil {
		return err
	}
	if err := w.SetComponent(e, Placeholder{Variant: inst.Variant, Path: depHandle.Path()}); err != nil {
		return err
	}

	s.mu.Lock()
	s.pending = append(s.pending, &pendingInstance{
		w:        w,
		entity:   e,
		fromPath: fromPath,
		instance: inst,
	})
	s.mu.Unlock()
	return nil
}

// validateSource checks that the document an instance's source resolves to
// really is the variant the instance declares.
func validateSource(inst *model.Instance, desc *registry.PrefabDescriptor, srcDoc *model.Document) error {
	if srcDoc.Variant != inst.Variant {
		return fmt.Errorf("%w: instance declares %q, source %s holds %q",
			ErrSourceMismatch, inst.Variant, srcDoc.Path, srcDoc.Variant)
	}
	if inst.Source.UUID != uuid.Nil {
		if srcDoc.UUID == uuid.Nil {
			return fmt.Errorf("%w: source pins uuid %s but document %s declares none",
				ErrSourceMismatch, inst.Source.UUID, srcDoc.Path)
		}
		if inst.Source.UUID != srcDoc.UUID {
			return fmt.Errorf("%w: source uuid %s, document %s has uuid %s",
				ErrSourceMismatch, inst.Source.UUID, srcDoc.Path, srcDoc.UUID)
		}
	}
	if desc.UUID != uuid.Nil && srcDoc.UUID != uuid.Nil && desc.UUID != srcDoc.UUID {
		return fmt.Errorf("%w: variant %q is pinned to uuid %s, document %s has uuid %s",
			ErrSourceMismatch, inst.Variant, desc.UUID, srcDoc.Path, srcDoc.UUID)
	}
	return nil
}

// PendingCount reports how many placeholder instances are waiting on their
// source.
func (s *Spawner) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// ProcessPending retries every placeholder whose source has become Ready:
// the placeholder tag is dropped and the instance's content is populated
// into the same entity, so references held to it stay valid. Placeholders
// whose source is still unready stay queued; ones whose entity was
// despawned are dropped. Returns how many instances were completed.
func (s *Spawner) ProcessPending(ctx context.Context) (int, error) {
	s.mu.Lock()
	queue := s.pending
	s.pending = nil
	s.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	completed := 0
	var stillPending []*pendingInstance
	var errs []error

	for _, p := range queue {
		if !p.w.Alive(p.entity) {
			continue
		}

		depHandle, err := s.server.Resolve(ctx, p.fromPath, p.instance.Source.Path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if depHandle.State() != assets.StateReady {
			stillPending = append(stillPending, p)
			continue
		}

		desc, ok := s.registry.Prefab(p.instance.Variant)
		if !ok {
			errs = append(errs, fmt.Errorf("unknown variant %q", p.instance.Variant))
			continue
		}
		srcDoc := depHandle.Document()
		if err := validateSource(p.instance, desc, srcDoc); err != nil {
			errs = append(errs, err)
			continue
		}

		p.w.RemoveComponent(p.entity, placeholderType)
		err = s.populate(ctx, p.w, srcDoc, p.entity, overlay{
			transform:  p.instance.Transform,
			data:       p.instance.Data,
			components: p.instance.Components,
		})
		if err != nil {
			p.w.Despawn(p.entity)
			errs = append(errs, fmt.Errorf("instance %d (%s): %w", p.instance.ID, p.instance.Variant, err))
			continue
		}

		logger.Info("Placeholder replaced.", "variant", p.instance.Variant, "source", depHandle.Path())
		completed++
	}

	s.mu.Lock()
	s.pending = append(stillPending, s.pending...)
	s.mu.Unlock()

	return completed, errors.Join(errs...)
}
