package audio

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms

	DefaultWait   = 15 * time.Second
	DefaultPhrase = 10 * time.Second

	minThreshold    = 0.01
	thresholdFactor = 1.5
	trailingSilence = 800 * time.Millisecond
)

// ErrNoSpeech is returned when nobody spoke within the wait window.
var ErrNoSpeech = errors.New("no speech detected")

type Recorder struct {
	mu        sync.Mutex
	threshold float64
}

func NewRecorder() *Recorder { return &Recorder{threshold: minThreshold} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Threshold is the RMS level above which a frame counts as speech.
func (r *Recorder) Threshold() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.threshold
}

// Calibrate samples the room for d and raises the speech threshold above
// the ambient noise floor.
func (r *Recorder) Calibrate(ctx context.Context, d time.Duration) error {
	var sum float64
	frames := 0

	err := r.stream(ctx, func(frame []float32) bool {
		sum += frameRMS(frame)
		frames++
		return time.Duration(frames)*20*time.Millisecond < d
	})
	if err != nil {
		return err
	}
	if frames == 0 {
		return nil
	}

	r.mu.Lock()
	r.threshold = calibratedThreshold(sum / float64(frames))
	r.mu.Unlock()
	return nil
}

// Record waits up to wait for speech to start and captures at most phrase
// of it, stopping early on trailing silence.
func (r *Recorder) Record(ctx context.Context, wait, phrase time.Duration) ([]float32, error) {
	if wait <= 0 {
		wait = DefaultWait
	}
	if phrase <= 0 {
		phrase = DefaultPhrase
	}

	det := newPhraseDetector(r.Threshold(), wait, phrase)
	if err := r.stream(ctx, det.feed); err != nil {
		return nil, err
	}
	return det.result()
}

func (r *Recorder) stream(ctx context.Context, fn func([]float32) bool) error {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := stream.Read(); err != nil {
			return err
		}
		if !fn(buf) {
			return nil
		}
	}
}

func calibratedThreshold(ambient float64) float64 {
	return math.Max(minThreshold, ambient*thresholdFactor)
}

// phraseDetector consumes 20ms frames and decides when a phrase is over.
type phraseDetector struct {
	threshold float64

	waitFrames    int
	phraseFrames  int
	silenceFrames int

	seen     int
	speaking bool
	quiet    int
	out      []float32
}

func newPhraseDetector(threshold float64, wait, phrase time.Duration) *phraseDetector {
	frame := time.Second * frameSize / SampleRate
	return &phraseDetector{
		threshold:     threshold,
		waitFrames:    int(wait / frame),
		phraseFrames:  int(phrase / frame),
		silenceFrames: int(trailingSilence / frame),
	}
}

// feed reports whether more frames are wanted.
func (p *phraseDetector) feed(frame []float32) bool {
	p.seen++
	loud := frameRMS(frame) > p.threshold

	if !p.speaking {
		if !loud {
			return p.seen < p.waitFrames
		}
		p.speaking = true
		p.seen = 1
	}

	p.out = append(p.out, frame...)

	if loud {
		p.quiet = 0
	} else {
		p.quiet++
	}

	return p.quiet < p.silenceFrames && p.seen < p.phraseFrames
}

func (p *phraseDetector) result() ([]float32, error) {
	if !p.speaking {
		return nil, ErrNoSpeech
	}
	return p.out, nil
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
