// Package speech turns audio into the utterances the assistant loop reads.
package speech

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"jarvis/internal/audio"
)

const (
	StatusCalibrating  = "Adjusting for ambient noise..."
	StatusListening    = "Listening..."
	StatusProcessing   = "Processing speech..."
	StatusReady        = "Ready"
	StatusNoSpeech     = "No speech detected - ready for next command"
	StatusUnrecognized = "Could not understand - please try again"
	StatusMicError     = "Microphone error - check your audio device"
	StatusSTTError     = "Speech service error - please try again"

	DefaultCalibration = 2 * time.Second
)

// Spoken apologies for failures the user can act on.
const (
	MicErrorText = "There seems to be a problem with the microphone. Please check your audio device."
	STTErrorText = "Sorry, speech recognition service is unavailable."
)

// failure carries the apology the assistant speaks instead of a generic retry.
type failure struct {
	text string
	err  error
}

func (f *failure) Error() string   { return f.err.Error() }
func (f *failure) Unwrap() error   { return f.err }
func (f *failure) Explain() string { return f.text }

// Transcriber converts mono 16 kHz PCM to text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

type Recorder interface {
	Calibrate(ctx context.Context, d time.Duration) error
	Record(ctx context.Context, wait, phrase time.Duration) ([]float32, error)
}

type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

// Status receives progress updates for display.
type Status interface {
	SetStatus(text string)
	SetListening(on bool)
}

type MicConfig struct {
	Recorder    Recorder
	Transcriber Transcriber
	Status      Status
	Ducker      Ducker // optional
	Chime       func() // optional, played when recording starts

	Calibration time.Duration
	Wait        time.Duration
	Phrase      time.Duration
}

type MicListener struct {
	cfg MicConfig
}

func NewMicListener(cfg MicConfig) *MicListener {
	if cfg.Calibration <= 0 {
		cfg.Calibration = DefaultCalibration
	}
	if cfg.Wait <= 0 {
		cfg.Wait = audio.DefaultWait
	}
	if cfg.Phrase <= 0 {
		cfg.Phrase = audio.DefaultPhrase
	}
	if cfg.Status == nil {
		cfg.Status = nopStatus{}
	}
	return &MicListener{cfg: cfg}
}

// Listen records one phrase and transcribes it. Silence and unintelligible
// audio yield an empty utterance; device and service failures are errors.
func (m *MicListener) Listen(ctx context.Context) (string, error) {
	st := m.cfg.Status

	st.SetStatus(StatusCalibrating)
	if err := m.cfg.Recorder.Calibrate(ctx, m.cfg.Calibration); err != nil {
		st.SetStatus(StatusMicError)
		return "", &failure{MicErrorText, fmt.Errorf("calibrate: %w", err)}
	}

	pcm, err := m.record(ctx)
	switch {
	case errors.Is(err, audio.ErrNoSpeech):
		log.Debug("Listening timeout, no speech detected")
		st.SetStatus(StatusNoSpeech)
		return "", nil
	case err != nil:
		st.SetStatus(StatusMicError)
		return "", &failure{MicErrorText, fmt.Errorf("record: %w", err)}
	}

	st.SetStatus(StatusProcessing)
	log.Debug("Audio captured", "seconds", float64(len(pcm))/audio.SampleRate)

	text, err := m.cfg.Transcriber.Transcribe(ctx, pcm)
	if err != nil {
		st.SetStatus(StatusSTTError)
		return "", &failure{STTErrorText, fmt.Errorf("transcribe: %w", err)}
	}

	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		st.SetStatus(StatusUnrecognized)
		return "", nil
	}

	log.Info("Recognized", "text", text)
	st.SetStatus(StatusReady)
	return text, nil
}

func (m *MicListener) record(ctx context.Context) ([]float32, error) {
	st := m.cfg.Status

	if m.cfg.Ducker != nil {
		if err := m.cfg.Ducker.Duck(ctx); err != nil {
			log.Warn("Failed to duck other audio", "err", err)
		}
		defer func() {
			// restore even when ctx is already cancelled
			if err := m.cfg.Ducker.Restore(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to restore other audio", "err", err)
			}
		}()
	}

	st.SetStatus(StatusListening)
	st.SetListening(true)
	defer st.SetListening(false)

	if m.cfg.Chime != nil {
		m.cfg.Chime()
	}

	return m.cfg.Recorder.Record(ctx, m.cfg.Wait, m.cfg.Phrase)
}

type nopStatus struct{}

func (nopStatus) SetStatus(string)  {}
func (nopStatus) SetListening(bool) {}
