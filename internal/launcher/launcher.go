package launcher

import (
	"errors"
	"fmt"
	log "log/slog"
	"os/exec"
	"regexp"
	"runtime"
	"strings"

	"github.com/google/shlex"
)

var ErrUnsupported = errors.New("unsupported platform")

// protocolRe matches protocol handler targets like "whatsapp:" or
// "whatsapp://send?text=hi", but not Windows drive paths.
var protocolRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]+:`)

// Starter starts a process without waiting for it.
type Starter func(name string, args ...string) error

func startProcess(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

// System opens URLs and applications the way the desktop does.
type System struct {
	goos  string
	start Starter
}

func New() *System {
	return NewFor(runtime.GOOS, nil)
}

// NewFor builds a System for goos. A nil start launches real processes.
func NewFor(goos string, start Starter) *System {
	if start == nil {
		start = startProcess
	}
	return &System{goos: goos, start: start}
}

// OpenURL hands u to the default browser.
func (s *System) OpenURL(u string) error {
	log.Debug("Opening url", "url", u)

	switch s.goos {
	case "darwin":
		return s.start("open", u)
	case "windows":
		return s.start("rundll32", "url.dll,FileProtocolHandler", u)
	case "linux", "freebsd", "openbsd", "netbsd":
		return s.start("xdg-open", u)
	default:
		return fmt.Errorf("open %q on %s: %w", u, s.goos, ErrUnsupported)
	}
}

// Launch starts an application target: an executable path, a command line or a
// protocol handler.
func (s *System) Launch(target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return errors.New("empty launch target")
	}

	log.Debug("Launching", "target", target)

	if s.goos == "windows" {
		// start resolves both executables and registered protocols; the empty
		// title keeps quoted paths from being taken as the window title.
		return s.start("cmd", "/c", "start", "", target)
	}

	if isProtocol(target) {
		return s.OpenURL(target)
	}

	argv, err := shlex.Split(target)
	if err != nil {
		return fmt.Errorf("parse %q: %w", target, err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("parse %q: no command", target)
	}

	return s.start(argv[0], argv[1:]...)
}

func isProtocol(target string) bool {
	if !protocolRe.MatchString(target) {
		return false
	}
	return !strings.ContainsAny(target, " ")
}
