// Package watch reports changes to a repository's git metadata and working
// tree so callers can refresh status, diffs or the worktree catalog.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/wtdiff/internal/debounce"
)

// DefaultDelay is the quiet period before a burst of events is reported.
const DefaultDelay = 350 * time.Millisecond

// Watcher calls its callback once per burst of relevant file events.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce *debounce.Debouncer
	done     chan struct{}
	once     sync.Once
	closeErr error
}

// New starts watching root. fn runs on its own goroutine after delay has
// passed without further events.
func New(root string, delay time.Duration, fn func()) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	paths := Paths(root)
	if len(paths) == 0 {
		return nil, fmt.Errorf("watch: empty root")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for _, path := range paths {
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := fsw.Add(path); err != nil {
			err := errors.Join(err, fsw.Close())
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
	}
	w := &Watcher{
		fs:       fsw,
		debounce: debounce.New(delay, fn),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops watching and cancels a pending callback. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	w.once.Do(func() {
		w.debounce.Stop()
		w.closeErr = w.fs.Close()
		<-w.done
	})
	return w.closeErr
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnore(ev.Name) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				w.addCreatedDir(ev.Name)
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			w.debounce.Trigger()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

// addCreatedDir starts watching a directory created in the working tree,
// since fsnotify watches are not recursive.
func (w *Watcher) addCreatedDir(name string) {
	if filepath.Base(name) == ".git" {
		return
	}
	info, err := os.Lstat(name)
	if err != nil || !info.IsDir() {
		return
	}
	for _, dir := range treeDirs(name) {
		if err := w.fs.Add(dir); err != nil {
			slog.Debug("cannot watch new directory", slog.String("path", dir), slog.Any("error", err))
		}
	}
}

// Paths returns what to watch for root: the git metadata directory (root's
// .git directory, or the gitdir a linked worktree's .git file points to)
// followed by root and every directory below it other than .git.
func Paths(root string) []string {
	if root == "" {
		return nil
	}
	var paths []string
	if gitDir, ok := metadataDir(root); ok {
		paths = append(paths, gitDir)
	}
	return append(paths, treeDirs(root)...)
}

func metadataDir(root string) (string, bool) {
	dotGit := filepath.Join(root, ".git")
	info, err := os.Stat(dotGit)
	switch {
	case err != nil:
		return "", false
	case info.IsDir():
		return dotGit, true
	}
	gitDir, ok := readGitFile(dotGit)
	if !ok {
		return "", false
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(root, gitDir)
	}
	return filepath.Clean(gitDir), true
}

// treeDirs lists dir and its subdirectories in lexical order, skipping .git
// entries and anything that cannot be read.
func treeDirs(dir string) []string {
	dirs := []string{dir}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		case path == dir || !d.IsDir():
			return nil
		case d.Name() == ".git":
			return fs.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs
}

func readGitFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	line, _, _ := strings.Cut(string(data), "\n")
	dir, ok := strings.CutPrefix(strings.TrimSpace(line), "gitdir:")
	dir = strings.TrimSpace(dir)
	return dir, ok && dir != ""
}

func shouldIgnore(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
