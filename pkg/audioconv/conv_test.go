package audioconv

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeStereoWAV writes n frames of a constant left/right pair at rate.
func writeStereoWAV(t *testing.T, name string, rate, n int, left, right int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	data := make([]int, 2*n)
	for i := 0; i < n; i++ {
		data[2*i], data[2*i+1] = left, right
	}

	enc := wav.NewEncoder(f, rate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"a.wav", nil, formatWAV},
		{"a.MP3", nil, formatMP3},
		{"a.opus", nil, formatOgg},
		{"noext", []byte("RIFF\x00\x00\x00\x00WAVE"), formatWAV},
		{"clip.bin", []byte("OggS\x00\x02"), formatOgg},
		{"clip.bin", []byte("ID3\x03\x00\x00"), formatMP3},
		{"clip.bin", []byte{0xFF, 0xFB, 0x90, 0x64}, formatMP3},
	}

	for _, test := range tests {
		r := bytes.NewReader(test.data)
		result, err := detect(test.name, r)
		if err != nil || result != test.expected {
			t.Errorf("detect(%q, % x) = %q, %v; expected %q", test.name, test.data, result, err, test.expected)
		}
		if pos, _ := r.Seek(0, io.SeekCurrent); pos != 0 {
			t.Errorf("detect(%q) left the reader at %d", test.name, pos)
		}
	}
}

func TestDetectUnknown(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("fLaC\x00"), []byte("hello world")} {
		if _, err := detect("clip.bin", bytes.NewReader(data)); !errors.Is(err, ErrUnsupported) {
			t.Errorf("detect(% x): expected ErrUnsupported, got %v", data, err)
		}
	}
}

func TestDecodeFileSniffsWAV(t *testing.T) {
	src := writeStereoWAV(t, "tone.wav", 44100, 44100, 16384, 0)
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, "recording", data)

	pcm, err := DecodeFile(path, 0)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if len(pcm) < SampleRate-1 || len(pcm) > SampleRate+1 {
		t.Errorf("decoded %d samples; expected about %d", len(pcm), SampleRate)
	}
	// left at half scale, right silent
	if got := pcm[len(pcm)/2]; math.Abs(float64(got)-0.25) > 0.01 {
		t.Errorf("mono sample = %v; expected 0.25", got)
	}
}

func TestDecodeFileTruncates(t *testing.T) {
	path := writeStereoWAV(t, "long.wav", SampleRate, 3*SampleRate, 100, 100)

	pcm, err := DecodeFile(path, 1)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if len(pcm) != SampleRate {
		t.Errorf("decoded %d samples; expected %d", len(pcm), SampleRate)
	}
}

func TestDecodeFileErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"notes.txt", []byte("not audio at all")},
		{"broken.ogg", []byte("OggS garbage that is not a stream")},
		{"broken.wav", []byte("RIFF")},
	}

	for _, test := range tests {
		path := writeFile(t, test.name, test.data)
		if _, err := DecodeFile(path, 0); err == nil {
			t.Errorf("DecodeFile(%s) succeeded", test.name)
		}
	}

	path := writeFile(t, "notes.txt", []byte("not audio at all"))
	if _, err := DecodeFile(path, 0); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	in := make([]float32, SampleRate/2)
	for i := range in {
		in[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/SampleRate))
	}
	in[0], in[1] = 2, -2 // clipped

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodeWAV(f, in); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	f.Close()

	out, err := DecodeFile(path, 0)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("decoded %d samples; expected %d", len(out), len(in))
	}
	if out[0] < 0.99 || out[1] > -0.99 {
		t.Errorf("clipped samples decoded as %v, %v", out[0], out[1])
	}
	for i := 2; i < len(in); i++ {
		if math.Abs(float64(out[i]-in[i])) > 1e-3 {
			t.Fatalf("sample %d = %v; expected %v", i, out[i], in[i])
		}
	}
}

func TestDownmixAndResample(t *testing.T) {
	mono := downmix([]float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	if len(mono) != 3 || mono[0] != 0.5 || mono[1] != 0.5 || mono[2] != 0 {
		t.Errorf("downmix = %v", mono)
	}

	tests := []struct {
		from, to int
		n        int
		expected int
	}{
		{48000, SampleRate, 4800, 1600},
		{8000, SampleRate, 800, 1600},
		{SampleRate, SampleRate, 123, 123},
	}
	for _, test := range tests {
		out := resample(make([]float32, test.n), test.from, test.to)
		if len(out) != test.expected {
			t.Errorf("resample %d->%d of %d = %d samples; expected %d", test.from, test.to, test.n, len(out), test.expected)
		}
	}

	up := resample([]float32{0, 1}, 1, 2)
	if len(up) != 4 || up[1] != 0.5 || up[3] != 1 {
		t.Errorf("interpolation = %v", up)
	}
}
