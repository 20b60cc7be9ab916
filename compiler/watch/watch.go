// Package watch reruns code generation when the sources of the records
// change.
package watch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before fn runs.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reruns a function when watched files change.
type Watcher struct {
	// Paths are files or directories. A directory watches every source file
	// directly inside it.
	Paths []string
	// Debounce coalesces bursts of events. Defaults to DefaultDebounce.
	Debounce time.Duration
	// Logger receives failures of fn and of the underlying watcher.
	Logger *slog.Logger
}

// Run calls fn once and then again after every change of the given paths,
// until ctx is canceled.
func Run(ctx context.Context, paths []string, fn func(context.Context) error) error {
	w := &Watcher{Paths: paths}
	return w.Run(ctx, fn)
}

// Run calls fn once and then again after every change of the watched files,
// until ctx is canceled. Failures of fn are logged and do not stop the loop.
// Generated files never trigger a run, so fn may write next to the sources.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	files, dirs, err := w.targets()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	log := w.logger()
	run := func() {
		if err := fn(ctx); err != nil {
			log.Error("generation failed", "err", err)
		}
	}
	run()

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, files) {
				continue
			}
			log.Debug("source changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "err", err)
		case <-timer.C:
			run()
		}
	}
}

// targets splits the watched paths into explicitly named files and the
// directories to subscribe to.
func (w *Watcher) targets() (files, dirs []string, err error) {
	for _, p := range w.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, nil, fmt.Errorf("watch: %w", err)
		}
		dir := abs
		if !info.IsDir() {
			files = append(files, abs)
			dir = filepath.Dir(abs)
		}
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return files, dirs, nil
}

func (w *Watcher) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// relevant reports whether an event should trigger a run. When files were
// named explicitly, only they are considered; otherwise every non-generated
// Go source or schema document of the watched directories is.
func relevant(ev fsnotify.Event, files []string) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	if len(files) > 0 && !slices.Contains(files, name) {
		return false
	}
	switch filepath.Ext(name) {
	case ".go":
		if strings.HasSuffix(name, "_test.go") {
			return false
		}
		return !isGenerated(name)
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

var generated = regexp.MustCompile(`^// Code generated .* DO NOT EDIT\.$`)

// isGenerated reports whether a Go file carries the standard generated-code
// comment before its package clause.
func isGenerated(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if generated.MatchString(line) {
			return true
		}
		if strings.HasPrefix(line, "package ") {
			return false
		}
	}
	return false
}
