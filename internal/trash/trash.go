package trash

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

var ErrNotFound = errors.New("trash folder not found")

// strategyTimeout bounds every external command a strategy runs.
const strategyTimeout = 10 * time.Second

// Runner executes an external command and waits for it.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Bin opens and empties the platform trash.
type Bin struct {
	goos string
	home string
	run  Runner
}

func New() (*Bin, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("home dir: %w", err)
	}
	return NewFor(runtime.GOOS, home, nil), nil
}

// NewFor builds a Bin for goos rooted at home. A nil run executes real
// commands.
func NewFor(goos, home string, run Runner) *Bin {
	if run == nil {
		run = execRunner
	}
	return &Bin{goos: goos, home: home, run: run}
}

func (b *Bin) Open(ctx context.Context) error {
	var strategies []Strategy

	switch b.goos {
	case "windows":
		strategies = []Strategy{
			b.command("explorer", "explorer", "shell:RecycleBinFolder"),
			b.command("cmd start", "cmd", "/c", "start", "shell:RecycleBinFolder"),
		}
	case "darwin":
		dir := filepath.Join(b.home, ".Trash")
		if !isDir(dir) {
			return fmt.Errorf("%s: %w", dir, ErrNotFound)
		}
		strategies = []Strategy{b.command("open", "open", dir)}
	default:
		strategies = []Strategy{b.command("gio", "gio", "open", "trash:///")}
		for _, dir := range b.dirs() {
			strategies = append(strategies, b.command("xdg-open "+dir, "xdg-open", dir))
		}
		if len(strategies) == 1 {
			// gio is the only hope; report a missing folder if it fails
			err := Attempt(ctx, strategies)
			if err != nil {
				return errors.Join(err, ErrNotFound)
			}
			return nil
		}
	}

	return Attempt(ctx, strategies)
}

// Empty permanently deletes the trash contents and returns how many items were
// removed, or -1 when the platform does not tell.
func (b *Bin) Empty(ctx context.Context) (int, error) {
	if b.goos == "windows" {
		err := Attempt(ctx, []Strategy{
			b.command("powershell", "powershell", "-NoProfile", "-Command", "Clear-RecycleBin -Force -ErrorAction Stop"),
		})
		if err != nil {
			return 0, err
		}
		return -1, nil
	}

	dirs := b.dirs()
	if len(dirs) == 0 {
		return 0, ErrNotFound
	}

	removed := 0
	strategies := make([]Strategy, 0, len(dirs))
	for _, dir := range dirs {
		strategies = append(strategies, Strategy{
			Name: "remove " + dir,
			Run: func(context.Context) error {
				n, err := clearDir(dir)
				if err != nil {
					return err
				}
				removed = n
				return nil
			},
		})
	}

	if err := Attempt(ctx, strategies); err != nil {
		return 0, err
	}
	return removed, nil
}

// dirs lists the existing trash folders, most specific first.
func (b *Bin) dirs() []string {
	var candidates []string
	if b.goos == "darwin" {
		candidates = []string{filepath.Join(b.home, ".Trash")}
	} else {
		candidates = []string{
			filepath.Join(b.home, ".local", "share", "Trash", "files"),
			filepath.Join(b.home, ".Trash"),
		}
	}

	var out []string
	for _, c := range candidates {
		if isDir(c) {
			out = append(out, c)
		}
	}
	return out
}

func (b *Bin) command(name, bin string, args ...string) Strategy {
	return Strategy{
		Name: name,
		Run: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, strategyTimeout)
			defer cancel()
			return b.run(ctx, bin, args...)
		},
	}
}

// clearDir removes every entry of dir. A freedesktop "files" folder also has
// its sibling "info" folder cleared.
func clearDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	var errs []error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}

	if filepath.Base(dir) == "files" {
		info := filepath.Join(filepath.Dir(dir), "info")
		if infos, err := os.ReadDir(info); err == nil {
			for _, e := range infos {
				if err := os.RemoveAll(filepath.Join(info, e.Name())); err != nil {
					log.Warn("Failed to remove trash info", "file", e.Name(), "err", err)
				}
			}
		}
	}

	if len(errs) > 0 {
		return 0, errors.Join(errs...)
	}
	return len(entries), nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
