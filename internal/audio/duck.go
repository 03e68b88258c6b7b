package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

// mixer is the slice of pactl the Ducker needs.
type mixer interface {
	SinkInputs(ctx context.Context) ([]sinkInput, error)
	SetVolume(ctx context.Context, id, percent int) error
}

// Ducker lowers every other application's playback while the assistant
// listens, and restores it afterwards.
type Ducker struct {
	mu       sync.Mutex
	mixer    mixer
	self     []string
	factor   float64
	fade     time.Duration
	original map[int]int
}

func NewDucker(self []string, factor float64, fade time.Duration) *Ducker {
	return newDucker(pactl{}, self, factor, fade)
}

func newDucker(m mixer, self []string, factor float64, fade time.Duration) *Ducker {
	return &Ducker{
		mixer:  m,
		self:   slices.Clone(self),
		factor: math.Max(0, math.Min(1, factor)),
		fade:   fade,
	}
}

func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.original != nil {
		return nil
	}

	inputs, err := d.mixer.SinkInputs(ctx)
	if err != nil {
		return err
	}

	d.original = make(map[int]int)
	var targets []fade
	for _, in := range inputs {
		if slices.Contains(d.self, in.AppName) {
			continue
		}
		d.original[in.ID] = in.Volume
		targets = append(targets, fade{id: in.ID, from: in.Volume, to: int(math.Round(float64(in.Volume) * d.factor))})
	}

	return d.apply(ctx, targets)
}

// Restore fades ducked streams back. Streams that appeared since Duck are
// left alone.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.original == nil {
		return nil
	}
	original := d.original
	d.original = nil

	inputs, err := d.mixer.SinkInputs(ctx)
	if err != nil {
		return err
	}

	var targets []fade
	for _, in := range inputs {
		if vol, ok := original[in.ID]; ok {
			targets = append(targets, fade{id: in.ID, from: in.Volume, to: vol})
		}
	}

	return d.apply(ctx, targets)
}

type fade struct {
	id, from, to int
}

func (d *Ducker) apply(ctx context.Context, targets []fade) error {
	if len(targets) == 0 {
		return nil
	}

	const step = 10 * time.Millisecond
	steps := max(1, int(d.fade/step))

	for i := 1; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		for _, t := range targets {
			v := int(math.Round(float64(t.from) + float64(t.to-t.from)*frac))
			if err := d.mixer.SetVolume(ctx, t.id, v); err != nil {
				return fmt.Errorf("set volume id=%d: %w", t.id, err)
			}
		}

		if i < steps && !sleep(ctx, d.fade/time.Duration(steps)) {
			return ctx.Err()
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type pactl struct{}

func (pactl) SinkInputs(ctx context.Context) ([]sinkInput, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}
	return parseSinkInputs(string(out)), nil
}

func (pactl) SetVolume(ctx context.Context, id, percent int) error {
	percent = max(0, min(150, percent))
	return exec.CommandContext(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), fmt.Sprintf("%d%%", percent)).Run()
}

func parseSinkInputs(text string) []sinkInput {
	var res []sinkInput

	blocks := strings.Split(text, "Sink Input #")
	for _, block := range blocks[1:] {
		header, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		in := sinkInput{ID: id}
		for line := range strings.SplitSeq(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && in.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); m != nil {
					in.Volume, _ = strconv.Atoi(m[1])
				}
			}

			if name, ok := strings.CutPrefix(line, "application.name = "); ok && in.AppName == "" {
				in.AppName = strings.Trim(name, `"`)
			}
		}

		if in.Volume == 0 && in.AppName == "" {
			continue
		}
		res = append(res, in)
	}

	return res
}
