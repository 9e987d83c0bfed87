// Package watcher keeps the staged diagram in sync with a graph file on
// disk. Whenever the file changes it is parsed and staged as a whole
// snapshot; the reconciler carries node positions across, so an edit in
// a text editor reshapes the running layout instead of resetting it. A
// file that fails to parse or validate is ignored and the current graph
// stays on stage.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"ontolarium/internal/codec"
	"ontolarium/internal/domain"
)

// GraphStage is where reloaded snapshots go
type GraphStage interface {
	Replace(g *domain.Graph) error
}

// Watcher watches a graph file for changes
type Watcher struct {
	path     string
	stage    GraphStage
	debounce time.Duration
}

// New creates a watcher for path. The file format follows the
// extension: .json, .yaml or .yml.
func New(path string, stage GraphStage) *Watcher {
	return &Watcher{
		path:     path,
		stage:    stage,
		debounce: 500 * time.Millisecond,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Load parses the watched file and stages it. Called once at startup
// and again after every debounced change event.
func (w *Watcher) Load() error {
	f, err := os.Open(w.path)
	if err != nil {
		return fmt.Errorf("open graph file: %w", err)
	}
	defer f.Close()

	format := strings.TrimPrefix(filepath.Ext(w.path), ".")
	importer := codec.ImporterFor(format)
	if importer == nil {
		return fmt.Errorf("no importer for %q files", format)
	}

	g, err := importer.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", w.path, err)
	}
	if err := w.stage.Replace(g); err != nil {
		return fmt.Errorf("stage %s: %w", w.path, err)
	}

	log.Printf("Loaded %s: %d nodes, %d edges", w.path, len(g.Nodes), len(g.Edges))
	return nil
}

// Watch starts watching the file for changes
// It blocks until the context is cancelled or an error occurs
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory containing the file
	// This handles cases where the file is replaced (e.g., by editors)
	dir := filepath.Dir(w.path)
	filename := filepath.Base(w.path)

	if err := watcher.Add(dir); err != nil {
		return err
	}

	log.Printf("Watching %s for changes", w.path)

	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Check if this event is for our file
			if filepath.Base(event.Name) != filename {
				continue
			}

			// Handle write or create events
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				// Debounce rapid changes
				if debounceTimer != nil {
					debounceTimer.Stop()
				}

				debounceTimer = time.AfterFunc(w.debounce, func() {
					if err := w.Load(); err != nil {
						log.Printf("Reload rejected, keeping current graph: %v", err)
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return ctx.Err()
		}
	}
}
