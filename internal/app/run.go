package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/vk/prefabgo/internal/assets"
	"github.com/vk/prefabgo/internal/ctxlog"
	"github.com/vk/prefabgo/internal/model"
	"github.com/vk/prefabgo/internal/registry"
	"github.com/vk/prefabgo/internal/spawner"
	"github.com/vk/prefabgo/internal/world"
)

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	var err error
	switch a.config.Command {
	case CommandValidate:
		err = a.runValidate(ctx)
	case CommandShow:
		err = a.runShow(ctx)
	case CommandSpawn:
		err = a.runSpawn(ctx)
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}

	a.logger.Debug("App.Run method finished.")
	return err
}

// loadPaths loads every configured path, expanding directories into the
// prefab files they contain.
func (a *App) loadPaths(ctx context.Context) ([]*assets.Handle, error) {
	var handles []*assets.Handle
	for _, path := range a.config.Paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			dirHandles, err := a.server.LoadDir(ctx, path)
			if err != nil {
				return nil, err
			}
			handles = append(handles, dirHandles...)
			continue
		}
		handle, err := a.server.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		handles = append(handles, handle)
	}
	return handles, nil
}

func (a *App) runValidate(ctx context.Context) error {
	handles, err := a.loadPaths(ctx)
	if err != nil {
		return err
	}

	failures := 0
	for _, handle := range handles {
		if handle.State() == assets.StateReady {
			fmt.Fprintf(a.outW, "ok    %s\n", handle.Path())
			continue
		}
		failures++
		if loadErr := handle.Err(); loadErr != nil {
			fmt.Fprintf(a.outW, "error %s: %v\n", handle.Path(), loadErr)
		} else {
			fmt.Fprintf(a.outW, "error %s: state %s\n", handle.Path(), handle.State())
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d documents failed validation", failures, len(handles))
	}
	a.logger.Info("All documents validated.", "count", len(handles))
	return nil
}

func (a *App) runShow(ctx context.Context) error {
	handles, err := a.loadPaths(ctx)
	if err != nil {
		return err
	}

	for _, handle := range handles {
		doc := handle.Document()
		if doc == nil {
			fmt.Fprintf(a.outW, "%s: failed: %v\n", handle.Path(), handle.Err())
			continue
		}

		fmt.Fprintf(a.outW, "%s\n", handle.Path())
		fmt.Fprintf(a.outW, "  variant: %s\n", doc.Variant)
		if doc.ID != nil {
			fmt.Fprintf(a.outW, "  id: %d\n", *doc.ID)
		}
		if doc.UUID != uuid.Nil {
			fmt.Fprintf(a.outW, "  uuid: %s\n", doc.UUID)
		}
		for _, ent := range doc.Entities {
			fmt.Fprintf(a.outW, "  entity %d%s\n", ent.ID, componentSummary(ent.Components))
		}
		for _, inst := range doc.Instances {
			line := fmt.Sprintf("  instance %d (%s)", inst.ID, inst.Variant)
			if inst.Source != nil {
				line += fmt.Sprintf(" <- %s", inst.Source.Path)
			}
			fmt.Fprintln(a.outW, line+componentSummary(inst.Components))
		}
	}
	return nil
}

func (a *App) runSpawn(ctx context.Context) error {
	handles, err := a.loadPaths(ctx)
	if err != nil {
		return err
	}

	w := world.New()
	for _, handle := range handles {
		root, err := a.spawner.Spawn(ctx, w, handle, spawner.Options{})
		if err != nil {
			return fmt.Errorf("spawning %s: %w", handle.Path(), err)
		}
		fmt.Fprintf(a.outW, "%s (%s)\n", handle.Path(), handle.Document().Variant)
		a.printTree(w, root, "  ")
	}

	if n := a.spawner.PendingCount(); n > 0 {
		a.logger.Warn("Some instances spawned as placeholders.", "count", n)
	}
	return nil
}

// printTree dumps the spawned hierarchy, one entity per line with the short
// names of its components.
func (a *App) printTree(w *world.World, e world.Entity, indent string) {
	var names []string
	for _, t := range w.ComponentTypes(e) {
		names = append(names, registry.ShortName(t))
	}
	sort.Strings(names)

	fmt.Fprintf(a.outW, "%se%d %v\n", indent, e.ID, names)
	for _, child := range w.Children(e) {
		a.printTree(w, child, indent+"  ")
	}
}

// componentSummary renders an entity's component aliases for show output.
func componentSummary(components []*model.Component) string {
	if len(components) == 0 {
		return ""
	}
	names := make([]string, len(components))
	for i, comp := range components {
		names[i] = comp.Type
	}
	return " [" + strings.Join(names, ", ") + "]"
}
