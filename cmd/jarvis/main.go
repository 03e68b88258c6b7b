package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"jarvis/internal/assistant"
	"jarvis/internal/audio"
	"jarvis/internal/command"
	"jarvis/internal/config"
	"jarvis/internal/dispatch"
	"jarvis/internal/display"
	"jarvis/internal/ipc"
	"jarvis/internal/launcher"
	"jarvis/internal/notify"
	"jarvis/internal/proxy"
	"jarvis/internal/speech"
	"jarvis/internal/trash"
	"jarvis/internal/tts"
	"jarvis/internal/tts/espeak"
	"jarvis/internal/weather"
	"jarvis/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

const sttTimeout = 120 * time.Second

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configFile := cli.StringP("config", "c", config.DefaultPath, "Config file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address, empty for direct")
	input := cli.StringP("input", "i", "mic", "Input source: mic, ipc or file")
	files := cli.StringSliceP("file", "f", nil, "Audio files to transcribe with --input file")
	sttBackend := cli.StringP("stt", "s", "", "Speech recognizer: openai or whisper")
	model := cli.StringP("model", "m", "", "OpenAI model name or whisper model path")
	wsURL := cli.String("ws", "", "Websocket hub to publish status to")
	desktop := cli.Bool("notify", false, "Mirror replies as desktop notifications")
	ui := cli.Bool("ui", false, "Draw the status panel; logs go to stderr")
	mute := cli.Bool("mute", false, "Print replies instead of speaking them")
	ptt := cli.Bool("ptt", false, "Listen on the microphone only after jarvis-ctl --trigger")
	cli.Parse()

	logOut := os.Stdout
	if *ui {
		logOut = os.Stderr
	}
	log.SetDefault(log.New(tint.NewHandler(logOut, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if *sttBackend != "" {
		cfg.STT = *sttBackend
	}
	if *model != "" {
		cfg.STTModel = *model
	}
	if *wsURL != "" {
		cfg.StatusWS = *wsURL
	}
	cfg.Notify = cfg.Notify || *desktop

	log.Debug("Loaded config", "file", *configFile, "stt", cfg.STT, "city", cfg.DefaultCity)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sinks []display.Sink
	var publisher *display.WSPublisher
	if cfg.StatusWS != "" {
		publisher, err = display.NewWSPublisher(cfg.StatusWS)
		if err != nil {
			log.Error("Bad status hub url", "url", cfg.StatusWS, "err", err)
			os.Exit(1)
		}
		sinks = append(sinks, publisher)
	}
	panel := display.NewPanel(sinks...)

	lines := display.Tee{panel}
	if cfg.Notify {
		lines = append(lines, display.NewNotifier("Jarvis"))
	}

	var engine tts.Engine = espeak.NewEspeak(cfg.Voice, cfg.VoiceRate)
	if *mute {
		engine = tts.Silent{}
	}
	voice := tts.NewVoice(engine, lines)

	weatherHTTP, err := proxy.NewSocksClient(*proxyAddr, cfg.HTTPTimeout.Duration)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
		os.Exit(1)
	}
	if cfg.WeatherAPIKey == "" {
		log.Warn("OPENWEATHER_API_KEY not set, weather requests will fail")
	}

	bin, err := trash.New()
	if err != nil {
		log.Error("Failed to locate trash", "err", err)
		os.Exit(1)
	}

	sys := launcher.New()
	dispatcher := dispatch.New(dispatch.Config{
		Speaker:  voice,
		Browser:  sys,
		Launcher: sys,
		Trash:    bin,
		Weather:  weather.NewClient(cfg.WeatherAPI, cfg.WeatherAPIKey, weatherHTTP),
	})

	var (
		queue    *speech.Queue
		gate     *speech.Gate
		listener assistant.Listener
	)

	switch *input {
	case "ipc":
		queue = speech.NewQueue(cfg.ListenWait.Duration)
		listener = queue
	case "mic", "file":
		tr, closeTr, err := newTranscriber(cfg, *proxyAddr)
		if err != nil {
			log.Error("Failed to init speech recognition", "stt", cfg.STT, "err", err)
			os.Exit(1)
		}
		defer closeTr()

		if *input == "file" {
			listener = speech.NewFiles(tr, *files...)
			break
		}

		rec := audio.NewRecorder()
		if err := rec.Init(); err != nil {
			log.Error("Failed to init audio", "err", err)
			os.Exit(1)
		}
		defer rec.Close()

		mic := speech.MicConfig{
			Recorder:    rec,
			Transcriber: tr,
			Status:      panel,
			Wait:        cfg.ListenWait.Duration,
			Phrase:      cfg.PhraseLimit.Duration,
		}
		if cfg.Chime != "" {
			chime := notify.NewChime(cfg.Chime)
			mic.Chime = func() {
				if err := chime.Play(); err != nil {
					log.Warn("Failed to play chime", "err", err)
				}
			}
		}
		if cfg.Duck {
			mic.Ducker = audio.NewDucker([]string{"jarvis", "espeak-ng"}, 0.3, 200*time.Millisecond)
		}
		listener = speech.NewMicListener(mic)
		if *ptt {
			gate = speech.NewGate(listener, cfg.ListenWait.Duration)
			listener = gate
		}
	default:
		log.Error("Unknown input", "input", *input)
		os.Exit(1)
	}

	srv, err := ipc.StartServer(cfg.Socket, func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case ipc.CmdStop:
			log.Info("Stop requested")
			cancel()
		case ipc.CmdSay:
			if queue == nil {
				log.Warn("Typed commands need --input ipc", "text", msg.Text)
				return
			}
			queue.Push(ctx, msg.Text)
		case ipc.CmdTrigger:
			if gate == nil {
				log.Warn("Trigger needs --input mic --ptt")
				return
			}
			gate.Trigger()
		default:
			log.Warn("Unsupported command", "cmd", msg.Cmd)
		}
	})
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}
	defer srv.Close()

	loop := assistant.New(assistant.Config{
		Listener:   listener,
		Speaker:    voice,
		Dispatcher: dispatcher,
		Extractor: &command.Extractor{
			Registry:    cfg.Registry(),
			DefaultCity: cfg.DefaultCity,
		},
		MaxFailures: cfg.MaxFailures,
		Pause:       cfg.RetryPause.Duration,
		OnState: func(s assistant.State) {
			log.Debug("State", "state", s.String())
			switch s {
			case assistant.Dispatching:
				panel.SetStatus("Processing command...")
			case assistant.Stopped:
				panel.SetStatus("Stopped")
			}
		},
		OnTranscript: panel.SetTranscription,
	})

	log.Info("Boot up - successful", "input", *input)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if queue != nil {
			defer queue.Close()
		}
		return loop.Run(gctx)
	})
	if *ui {
		g.Go(func() error { return panel.Run(gctx, os.Stdout) })
	}
	if publisher != nil {
		g.Go(func() error { return publisher.Run(gctx) })
	}

	err = g.Wait()
	switch {
	case errors.Is(err, assistant.ErrTooManyFailures):
		log.Error("Giving up", "err", err)
		os.Exit(1)
	case err != nil && !errors.Is(err, context.Canceled):
		log.Error("Stopped with error", "err", err)
		os.Exit(1)
	}

	log.Info("Shut down")
}

func newTranscriber(cfg *config.Config, proxyAddr string) (speech.Transcriber, func(), error) {
	switch cfg.STT {
	case "whisper":
		w, err := stt.NewTranscriber(cfg.STTModel)
		if err != nil {
			return nil, nil, err
		}
		local := speech.NewLocal(w, stt.Options{
			Language:      cfg.STTLanguage,
			InitialPrompt: command.WakeWord,
		})
		return local, func() { w.Close() }, nil
	default:
		if cfg.OpenAIAPIKey == "" {
			return nil, nil, errors.New("OPENAI_API_KEY not set")
		}
		httpClient, err := proxy.NewSocksClient(proxyAddr, sttTimeout)
		if err != nil {
			return nil, nil, err
		}
		client := openai.NewClient(
			option.WithAPIKey(cfg.OpenAIAPIKey),
			option.WithHTTPClient(httpClient),
		)
		return speech.NewCloud(client, openai.AudioModel(cfg.STTModel), cfg.STTLanguage), func() {}, nil
	}
}
