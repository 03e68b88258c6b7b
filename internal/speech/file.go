package speech

import (
	"context"
	"fmt"

	"jarvis/internal/assistant"
	"jarvis/pkg/audioconv"
)

// maxFileSeconds bounds how much of each file is sent for recognition.
const maxFileSeconds = 30

// Files transcribes recorded commands one by one, then reports the input
// closed.
type Files struct {
	paths       []string
	transcriber Transcriber
}

func NewFiles(tr Transcriber, paths ...string) *Files {
	return &Files{paths: paths, transcriber: tr}
}

func (f *Files) Listen(ctx context.Context) (string, error) {
	if len(f.paths) == 0 {
		return "", assistant.ErrInputClosed
	}
	path := f.paths[0]
	f.paths = f.paths[1:]

	pcm, err := audioconv.DecodeFile(path, maxFileSeconds)
	if err != nil {
		return "", err
	}

	text, err := f.transcriber.Transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}
