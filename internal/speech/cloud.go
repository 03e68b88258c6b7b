package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v3"

	"jarvis/pkg/audioconv"
)

// Cloud sends audio to the OpenAI transcription endpoint.
type Cloud struct {
	client   openai.Client
	model    openai.AudioModel
	language string
}

func NewCloud(client openai.Client, model openai.AudioModel, language string) *Cloud {
	if model == "" {
		model = openai.AudioModelWhisper1
	}
	return &Cloud{client: client, model: model, language: language}
}

func (c *Cloud) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	// the wav encoder needs to seek back and patch the header
	f, err := os.CreateTemp("", "jarvis-*.wav")
	if err != nil {
		return "", err
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := audioconv.EncodeWAV(f, pcm); err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(f, "audio.wav", "audio/wav"),
		Model: c.model,
	}
	if c.language != "" {
		params.Language = openai.String(c.language)
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
