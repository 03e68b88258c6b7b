package command

import (
	"regexp"
	"strings"

	"github.com/sahilm/fuzzy"
)

// App is a launchable application. Target is an executable path, a command
// line, or a protocol handler such as "whatsapp:".
type App struct {
	Name   string
	Target string
}

type ResolutionStatus int

const (
	// AppMissing means the command named no application at all.
	AppMissing ResolutionStatus = iota
	AppResolved
	AppUnresolved
)

// Resolution is the outcome of looking up an application name.
type Resolution struct {
	Status ResolutionStatus
	// Name is the canonical name when resolved, the cleaned spoken name
	// otherwise.
	Name        string
	Target      string
	Suggestions []string
}

const maxSuggestions = 5

var (
	appTriggersRe = regexp.MustCompile(`\b(?:open|launch|start|run)\b`)
	nonWordRe     = regexp.MustCompile(`[^\w\s]`)
)

// Registry maps canonical application names to launch targets. It is not
// modified after construction.
type Registry struct {
	apps    []App
	byName  map[string]App
	aliases map[string]string
}

func NewRegistry(apps []App, aliases map[string]string) *Registry {
	r := &Registry{
		byName:  make(map[string]App, len(apps)),
		aliases: make(map[string]string, len(aliases)),
	}
	for _, a := range apps {
		name := strings.ToLower(strings.TrimSpace(a.Name))
		if name == "" || a.Target == "" {
			continue
		}
		if _, dup := r.byName[name]; dup {
			continue
		}
		a.Name = name
		r.apps = append(r.apps, a)
		r.byName[name] = a
	}
	for alias, canonical := range aliases {
		r.aliases[strings.ToLower(alias)] = strings.ToLower(canonical)
	}
	return r
}

// DefaultApps mirrors a typical desktop; config replaces it.
func DefaultApps() []App {
	return []App{
		{Name: "notepad", Target: "notepad.exe"},
		{Name: "chrome", Target: `C:\Program Files\Google\Chrome\Application\chrome.exe`},
		{Name: "code", Target: "code"},
		{Name: "whatsapp", Target: "whatsapp:"},
		{Name: "safari", Target: "open -a Safari"},
		{Name: "terminal", Target: "open -a Terminal"},
		{Name: "finder", Target: "open -a Finder"},
		{Name: "calculator", Target: "calc.exe"},
		{Name: "cmd", Target: "cmd.exe"},
		{Name: "explorer", Target: "explorer.exe"},
	}
}

func DefaultAliases() map[string]string {
	return map[string]string{
		"visual studio code": "code",
		"vs code":            "code",
		"vscode":             "code",
		"google chrome":      "chrome",
		"chrome browser":     "chrome",
		"web browser":        "chrome",
		"browser":            "chrome",
		"text editor":        "notepad",
		"calc":               "calculator",
		"command prompt":     "cmd",
		"file explorer":      "explorer",
	}
}

// Names returns the canonical names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.apps))
	for i, a := range r.apps {
		names[i] = a.Name
	}
	return names
}

func (r *Registry) Lookup(name string) (App, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Resolve finds the application an "open ..." command refers to.
func (r *Registry) Resolve(text string) Resolution {
	name := collapse(appTriggersRe.ReplaceAllString(strings.ToLower(text), " "))
	if name == "" {
		return Resolution{Status: AppMissing}
	}

	if a, ok := r.exact(name); ok {
		return resolved(a)
	}

	cleaned := collapse(nonWordRe.ReplaceAllString(name, ""))
	if cleaned == "" {
		return Resolution{Status: AppMissing}
	}
	if a, ok := r.exact(cleaned); ok {
		return resolved(a)
	}

	for _, a := range r.apps {
		if strings.Contains(a.Name, cleaned) || strings.Contains(cleaned, a.Name) {
			return resolved(a)
		}
	}

	return Resolution{
		Status:      AppUnresolved,
		Name:        cleaned,
		Suggestions: r.suggest(cleaned),
	}
}

func (r *Registry) exact(name string) (App, bool) {
	if name == "" {
		return App{}, false
	}
	if canonical, ok := r.aliases[name]; ok {
		if a, ok := r.byName[canonical]; ok {
			return a, true
		}
	}
	a, ok := r.byName[name]
	return a, ok
}

// suggest ranks registry names by fuzzy similarity, topping up with the first
// registered names.
func (r *Registry) suggest(name string) []string {
	names := r.Names()
	out := make([]string, 0, maxSuggestions)
	seen := make(map[string]bool)

	for _, m := range fuzzy.Find(name, names) {
		if len(out) == maxSuggestions {
			return out
		}
		out = append(out, m.Str)
		seen[m.Str] = true
	}
	for _, n := range names {
		if len(out) == maxSuggestions {
			break
		}
		if !seen[n] {
			out = append(out, n)
		}
	}
	return out
}

func resolved(a App) Resolution {
	return Resolution{Status: AppResolved, Name: a.Name, Target: a.Target}
}
