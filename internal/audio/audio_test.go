package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func tone(level float32) []float32 {
	f := make([]float32, frameSize)
	for i := range f {
		f[i] = level
	}
	return f
}

func TestPhraseDetectorStopsOnTrailingSilence(t *testing.T) {
	det := newPhraseDetector(0.1, time.Second, 10*time.Second)

	frames := 0
	feed := func(f []float32) bool {
		frames++
		return det.feed(f)
	}

	for range 5 {
		if !feed(tone(0)) {
			t.Fatal("stopped while waiting for speech")
		}
	}
	for range 10 {
		if !feed(tone(0.5)) {
			t.Fatal("stopped while speaking")
		}
	}

	// 800ms of silence is 40 frames
	quiet := 0
	for feed(tone(0)) {
		quiet++
		if quiet > 100 {
			t.Fatal("never stopped on silence")
		}
	}
	if quiet != 39 {
		t.Errorf("stopped after %d quiet frames; expected 39", quiet+1)
	}

	pcm, err := det.result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(pcm) != (10+40)*frameSize {
		t.Errorf("captured %d samples", len(pcm))
	}
}

func TestPhraseDetectorNoSpeech(t *testing.T) {
	det := newPhraseDetector(0.1, 200*time.Millisecond, time.Second)

	n := 0
	for det.feed(tone(0.01)) {
		n++
	}
	if n != 9 {
		t.Errorf("waited %d frames; expected 10", n+1)
	}
	if _, err := det.result(); !errors.Is(err, ErrNoSpeech) {
		t.Errorf("expected ErrNoSpeech, got %v", err)
	}
}

func TestPhraseDetectorCapsPhraseLength(t *testing.T) {
	det := newPhraseDetector(0.1, time.Second, 100*time.Millisecond)

	n := 0
	for det.feed(tone(0.5)) {
		n++
		if n > 50 {
			t.Fatal("phrase limit ignored")
		}
	}
	pcm, _ := det.result()
	if len(pcm) != 5*frameSize {
		t.Errorf("captured %d frames; expected 5", len(pcm)/frameSize)
	}
}

func TestCalibratedThreshold(t *testing.T) {
	if got := calibratedThreshold(0); got != minThreshold {
		t.Errorf("silent room: %v", got)
	}
	if got := calibratedThreshold(0.1); got < 0.149 || got > 0.151 {
		t.Errorf("noisy room: %v", got)
	}
}

const pactlOutput = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 65536 / 100% / 0.00 dB,   front-right: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "Firefox"
Sink Input #57
	Volume: front-left: 32768 /  50% / -18.06 dB
	Properties:
		application.name = "jarvis"
Sink Input #bogus
	Volume: 10%
`

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(pactlOutput)
	want := []sinkInput{
		{ID: 41, Volume: 100, AppName: "Firefox"},
		{ID: 57, Volume: 50, AppName: "jarvis"},
	}
	if len(got) != len(want) {
		t.Fatalf("parsed %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("input %d = %+v; expected %+v", i, got[i], want[i])
		}
	}
}

type fakeMixer struct {
	inputs []sinkInput
	set    map[int]int
}

func (f *fakeMixer) SinkInputs(context.Context) ([]sinkInput, error) {
	return f.inputs, nil
}

func (f *fakeMixer) SetVolume(_ context.Context, id, percent int) error {
	f.set[id] = percent
	for i := range f.inputs {
		if f.inputs[i].ID == id {
			f.inputs[i].Volume = percent
		}
	}
	return nil
}

func TestDuckAndRestore(t *testing.T) {
	m := &fakeMixer{
		inputs: []sinkInput{{ID: 1, Volume: 80, AppName: "spotify"}, {ID: 2, Volume: 100, AppName: "jarvis"}},
		set:    map[int]int{},
	}
	d := newDucker(m, []string{"jarvis"}, 0.25, 30*time.Millisecond)

	if err := d.Duck(context.Background()); err != nil {
		t.Fatalf("Duck: %v", err)
	}
	if m.set[1] != 20 {
		t.Errorf("spotify at %d%%; expected 20%%", m.set[1])
	}
	if _, touched := m.set[2]; touched {
		t.Error("own stream was ducked")
	}

	// second duck is a no-op and must not overwrite the saved volume
	if err := d.Duck(context.Background()); err != nil {
		t.Fatalf("Duck: %v", err)
	}

	m.inputs = append(m.inputs, sinkInput{ID: 3, Volume: 40, AppName: "mpv"})
	if err := d.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if m.set[1] != 80 {
		t.Errorf("spotify restored to %d%%; expected 80%%", m.set[1])
	}
	if _, touched := m.set[3]; touched {
		t.Error("stream started after ducking was changed")
	}
}
