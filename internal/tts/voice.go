// Package tts is the assistant's mouth: it shows what is about to be said,
// logs it, and plays it sentence by sentence.
package tts

import (
	log "log/slog"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Engine plays one chunk of text and blocks until it is done.
type Engine interface {
	Say(text string) error
}

// Display receives every line before it is spoken.
type Display interface {
	Say(text string)
}

// Silent prints instead of speaking, for --mute and headless runs.
type Silent struct{}

func (Silent) Say(string) error { return nil }

type Voice struct {
	engine    Engine
	display   Display
	tokenizer *sentences.DefaultSentenceTokenizer

	mu sync.Mutex
}

// NewVoice falls back to speaking whole lines if the sentence model cannot
// be loaded. display may be nil.
func NewVoice(engine Engine, display Display) *Voice {
	v := &Voice{engine: engine, display: display}

	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		log.Warn("Sentence tokenizer unavailable", "err", err)
	} else {
		v.tokenizer = tok
	}
	return v
}

// Speak never fails: engine errors are logged and the rest of the text is
// still attempted.
func (v *Voice) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	log.Info("Jarvis", "says", text)
	if v.display != nil {
		v.display.Say(text)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	for _, chunk := range v.split(text) {
		if err := v.engine.Say(chunk); err != nil {
			log.Error("Failed to voice out", "err", err)
		}
	}
}

func (v *Voice) split(text string) []string {
	if v.tokenizer == nil {
		return []string{text}
	}

	var out []string
	for _, s := range v.tokenizer.Tokenize(text) {
		if chunk := strings.TrimSpace(s.Text); chunk != "" {
			out = append(out, chunk)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
