// Package display holds what the user should see: the assistant status,
// the last transcription and what Jarvis last said.
package display

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	RefreshInterval = 33 * time.Millisecond

	initialStatus = "Initializing..."
	historySize   = 5
)

// Snapshot is a copy of the panel state at one instant.
type Snapshot struct {
	Status        string    `json:"status"`
	Transcription string    `json:"transcription"`
	Listening     bool      `json:"listening"`
	Spoken        []string  `json:"spoken,omitempty"`
	Time          time.Time `json:"time"`
}

// Sink is told about every state change. Calls are made without the panel
// lock held, from whichever goroutine changed the state.
type Sink interface {
	Publish(Snapshot)
}

type Panel struct {
	mu            sync.Mutex
	status        string
	transcription string
	listening     bool
	spoken        []string
	version       uint64

	sinks []Sink
	now   func() time.Time
}

func NewPanel(sinks ...Sink) *Panel {
	return &Panel{
		status: initialStatus,
		sinks:  sinks,
		now:    time.Now,
	}
}

func (p *Panel) SetStatus(text string) {
	p.update(func() { p.status = text })
}

func (p *Panel) SetTranscription(text string) {
	p.update(func() { p.transcription = text })
}

func (p *Panel) SetListening(on bool) {
	p.update(func() { p.listening = on })
}

// Say records a spoken line and shows it as the status.
func (p *Panel) Say(text string) {
	p.update(func() {
		p.status = "Jarvis: " + text
		p.spoken = append(p.spoken, text)
		if len(p.spoken) > historySize {
			p.spoken = p.spoken[len(p.spoken)-historySize:]
		}
	})
}

func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Panel) snapshotLocked() Snapshot {
	return Snapshot{
		Status:        p.status,
		Transcription: p.transcription,
		Listening:     p.listening,
		Spoken:        append([]string(nil), p.spoken...),
		Time:          p.now(),
	}
}

func (p *Panel) update(fn func()) {
	p.mu.Lock()
	fn()
	p.version++
	snap := p.snapshotLocked()
	p.mu.Unlock()

	for _, s := range p.sinks {
		s.Publish(snap)
	}
}

func (p *Panel) changed(since uint64) (Snapshot, uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked(), p.version, p.version != since || p.listening
}

// Run redraws the panel on out every RefreshInterval until ctx is done.
// It does nothing when out is not a terminal.
func (p *Panel) Run(ctx context.Context, out io.Writer) error {
	if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(RefreshInterval)
	defer ticker.Stop()

	var (
		seen  uint64
		frame int
	)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(out, "\n")
			return nil
		case <-ticker.C:
		}

		snap, version, dirty := p.changed(seen)
		if !dirty {
			continue
		}
		seen = version
		frame++

		fmt.Fprint(out, "\x1b[H\x1b[2J"+Render(snap, frame)+"\n")
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	micStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1).
			Width(60)
)

var pulse = []string{"●○○", "○●○", "○○●", "○●○"}

// Render draws one frame. frame drives the listening animation.
func Render(s Snapshot, frame int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("J.A.R.V.I.S"))
	if s.Listening {
		b.WriteString("  " + micStyle.Render("listening "+pulse[frame%len(pulse)]))
	}
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Status: ") + statusStyle.Render(s.Status) + "\n")

	heard := s.Transcription
	if heard == "" {
		heard = "-"
	}
	b.WriteString(labelStyle.Render("Heard:  ") + heard)

	if len(s.Spoken) > 0 {
		b.WriteString("\n\n" + labelStyle.Render("Recent:"))
		for _, line := range s.Spoken {
			b.WriteString("\n  " + line)
		}
	}

	return boxStyle.Render(b.String())
}
