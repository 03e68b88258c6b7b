package display

import (
	log "log/slog"

	"github.com/gen2brain/beeep"
)

// Line is anything that shows a spoken line.
type Line interface {
	Say(text string)
}

// Tee shows a line on every target in order.
type Tee []Line

func (t Tee) Say(text string) {
	for _, l := range t {
		l.Say(text)
	}
}

// Notifier mirrors spoken lines as desktop notifications.
type Notifier struct {
	title  string
	notify func(title, message string, icon any) error
}

func NewNotifier(title string) *Notifier {
	return &Notifier{title: title, notify: beeep.Notify}
}

func (n *Notifier) Say(text string) {
	if err := n.notify(n.title, text, ""); err != nil {
		log.Debug("Desktop notification failed", "err", err)
	}
}
