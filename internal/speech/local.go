package speech

import (
	"context"

	"jarvis/pkg/stt"
)

// Local runs a whisper.cpp model in process.
type Local struct {
	tr  *stt.Transcriber
	opt stt.Options
}

func NewLocal(tr *stt.Transcriber, opt stt.Options) *Local {
	return &Local{tr: tr, opt: opt}
}

func (l *Local) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	res, err := l.tr.TranscribePCM(ctx, pcm, l.opt)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
