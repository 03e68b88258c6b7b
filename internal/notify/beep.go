// Package notify plays the chime that tells the user the microphone is open.
package notify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

var ErrUnsupported = errors.New("unsupported chime format")

// Chime decodes its file once and replays it from memory.
type Chime struct {
	path string

	once   sync.Once
	buf    *beep.Buffer
	err    error
	played sync.Mutex
}

func NewChime(path string) *Chime {
	return &Chime{path: path}
}

func (c *Chime) load() {
	f, err := os.Open(c.path)
	if err != nil {
		c.err = err
		return
	}
	defer f.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(c.path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		err = fmt.Errorf("%s: %w", c.path, ErrUnsupported)
	}
	if err != nil {
		c.err = fmt.Errorf("decode chime: %w", err)
		return
	}
	defer streamer.Close()

	c.buf = beep.NewBuffer(format)
	c.buf.Append(streamer)

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		c.err = fmt.Errorf("init speaker: %w", err)
	}
}

// Play blocks until the chime has finished.
func (c *Chime) Play() error {
	c.once.Do(c.load)
	if c.err != nil {
		return c.err
	}

	c.played.Lock()
	defer c.played.Unlock()

	done := make(chan struct{})
	speaker.Play(beep.Seq(c.buf.Streamer(0, c.buf.Len()), beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}
