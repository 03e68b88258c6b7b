// Package audioconv turns audio files into the mono 16 kHz float PCM the
// transcribers expect, and back into WAV for upload.
package audioconv

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

// SampleRate is the rate every decoder resamples to.
const SampleRate = 16000

var ErrUnsupported = errors.New("unsupported audio format")

type decoder func(r io.ReadSeeker) ([]float32, error)

const (
	formatWAV = "wav"
	formatMP3 = "mp3"
	formatOgg = "ogg"
)

var decoders = map[string]decoder{
	formatWAV: decodeWAV,
	formatMP3: decodeMP3,
	formatOgg: decodeOgg,
}

var byExt = map[string]string{
	".wav":  formatWAV,
	".wave": formatWAV,
	".mp3":  formatMP3,
	".ogg":  formatOgg,
	".oga":  formatOgg,
	".opus": formatOgg,
}

var byMagic = map[string]string{
	"RIFF":    formatWAV,
	"OggS":    formatOgg,
	"ID3\x02": formatMP3,
	"ID3\x03": formatMP3,
	"ID3\x04": formatMP3,
}

// DecodeFile reads path and returns mono PCM at SampleRate in [-1, 1].
// maxSeconds > 0 truncates the result.
func DecodeFile(path string, maxSeconds int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format, err := detect(path, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	pcm, err := decoders[format](f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if limit := maxSeconds * SampleRate; maxSeconds > 0 && len(pcm) > limit {
		pcm = pcm[:limit]
	}
	return pcm, nil
}

// detect picks a format by extension, then by the leading bytes. r is left
// at the start of the stream.
func detect(path string, r io.ReadSeeker) (string, error) {
	if format, ok := byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return format, nil
	}

	magic, _ := bufio.NewReader(r).Peek(4)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	if format, ok := byMagic[string(magic)]; ok {
		return format, nil
	}
	// bare MPEG audio frame sync
	if len(magic) >= 2 && magic[0] == 0xFF && magic[1]&0xE0 == 0xE0 {
		return formatMP3, nil
	}
	return "", ErrUnsupported
}

// EncodeWAV writes mono 16-bit PCM at SampleRate to w.
func EncodeWAV(w io.WriteSeeker, pcm []float32) error {
	enc := wav.NewEncoder(w, SampleRate, 16, 1, 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           make([]int, len(pcm)),
		SourceBitDepth: 16,
	}
	for i, s := range pcm {
		buf.Data[i] = int(math.Round(clamp(float64(s), -1, 1) * 32767))
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}

func decodeWAV(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav")
	}

	pb, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if pb == nil || len(pb.Data) == 0 {
		return nil, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}

	channels, rate := 1, 44100
	if pb.Format != nil {
		if pb.Format.NumChannels > 0 {
			channels = pb.Format.NumChannels
		}
		if pb.Format.SampleRate > 0 {
			rate = pb.Format.SampleRate
		}
	}

	return toMono16k(intsToFloat(pb.Data, depth), channels, rate), nil
}

func decodeMP3(r io.ReadSeeker) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}

	samples := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, samples); err != nil {
		return nil, err
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}

	// go-mp3 always produces interleaved stereo
	return toMono16k(int16ToFloat(samples), 2, rate), nil
}

// decodeOgg tries Vorbis first, then Opus.
func decodeOgg(r io.ReadSeeker) ([]float32, error) {
	pcm, err := decodeVorbis(r)
	if err == nil {
		return pcm, nil
	}

	if _, serr := r.Seek(0, io.SeekStart); serr != nil {
		return nil, serr
	}

	pcm, oerr := decodeOpus(r)
	if oerr != nil {
		return nil, fmt.Errorf("neither vorbis (%v) nor opus (%w)", err, oerr)
	}
	return pcm, nil
}

func decodeVorbis(r io.Reader) ([]float32, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, errors.New("invalid vorbis stream")
	}
	return toMono16k(pcm, format.Channels, format.SampleRate), nil
}

func decodeOpus(r io.ReadSeeker) ([]float32, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	defer dec.Destroy()

	channels := dec.ChannelCount()
	if channels <= 0 {
		channels = 1
	}

	const opusRate = 48000

	var pcm []float32
	buf := make([]int16, opusRate*channels/2)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm = append(pcm, int16ToFloat(buf[:n*channels])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return toMono16k(pcm, channels, opusRate), nil
}

func toMono16k(pcm []float32, channels, rate int) []float32 {
	return resample(downmix(pcm, channels), rate, SampleRate)
}

func intsToFloat(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(clamp(float64(v)*scale, -1, 1))
	}
	return out
}

func int16ToFloat(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / 32768
	}
	return out
}

func downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += float64(in[i*channels+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// resample converts between rates by linear interpolation.
func resample(in []float32, from, to int) []float32 {
	if from == to || len(in) == 0 {
		return in
	}

	ratio := float64(to) / float64(from)
	out := make([]float32, int(math.Ceil(float64(len(in))*ratio)))
	last := len(in) - 1

	for i := range out {
		pos := float64(i) / ratio
		i0 := int(pos)
		if i0 >= last {
			out[i] = in[last]
			continue
		}
		frac := float32(pos - float64(i0))
		out[i] = in[i0]*(1-frac) + in[i0+1]*frac
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
