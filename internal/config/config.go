package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"jarvis/internal/command"
)

const DefaultPath = "jarvis.toml"

type App struct {
	Name   string `toml:"Name"`
	Target string `toml:"Target"`
}

type Config struct {
	DefaultCity   string `toml:"DefaultCity"`
	WeatherAPI    string `toml:"WeatherAPI"`
	WeatherAPIKey string `toml:"WeatherAPIKey"`
	OpenAIAPIKey  string `toml:"OpenAIAPIKey"`

	STT         string `toml:"STT"`         // "openai" or "whisper"
	STTModel    string `toml:"STTModel"`    // openai model name or whisper model path
	STTLanguage string `toml:"STTLanguage"` // e.g. "en"

	Voice     string `toml:"Voice"` // espeak language
	VoiceRate int    `toml:"VoiceRate"`
	Chime     string `toml:"Chime"` // empty disables the chime
	Duck      bool   `toml:"Duck"`  // lower other audio while listening

	HTTPTimeout  Duration `toml:"HTTPTimeout"`
	ListenWait   Duration `toml:"ListenWait"`
	PhraseLimit  Duration `toml:"PhraseLimit"`
	RetryPause   Duration `toml:"RetryPause"`
	MaxFailures  int      `toml:"MaxFailures"`
	Socket       string   `toml:"Socket"`
	StatusWS     string   `toml:"StatusWS"`
	Notify       bool     `toml:"Notify"`
	UseAppsTable bool     `toml:"UseAppsTable"` // false appends App to the built-in table

	Apps    []App             `toml:"App"`
	Aliases map[string]string `toml:"Aliases"`
}

// Duration reads TOML strings like "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func Default() *Config {
	return &Config{
		DefaultCity: "Ahmedabad",
		WeatherAPI:  "https://api.openweathermap.org/data/2.5/weather",
		STT:         "openai",
		STTModel:    "whisper-1",
		STTLanguage: "en",
		Voice:       "en",
		VoiceRate:   170,
		Chime:       "beep.mp3",
		HTTPTimeout: Duration{10 * time.Second},
		ListenWait:  Duration{15 * time.Second},
		PhraseLimit: Duration{10 * time.Second},
		RetryPause:  Duration{time.Second},
		MaxFailures: 5,
		Socket:      "/tmp/jarvis.sock",
	}
}

// LoadConfig reads fn over the defaults. A missing file is not an error.
// OPENWEATHER_API_KEY and OPENAI_API_KEY override the file.
func LoadConfig(fn string) (*Config, error) {
	if fn == "" {
		fn = DefaultPath
	}

	config := Default()
	_, err := toml.DecodeFile(fn, config)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}

	if v := os.Getenv("OPENWEATHER_API_KEY"); v != "" {
		config.WeatherAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		config.OpenAIAPIKey = v
	}

	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	switch config.STT {
	case "openai", "whisper":
	default:
		return nil, fmt.Errorf("unknown STT backend %q", config.STT)
	}

	return config, nil
}

// Registry builds the application registry from the built-in table and the
// configured apps and aliases.
func (c *Config) Registry() *command.Registry {
	var apps []command.App
	if !c.UseAppsTable {
		apps = command.DefaultApps()
	}
	// configured entries come first so they win over built-ins
	custom := make([]command.App, 0, len(c.Apps))
	for _, a := range c.Apps {
		custom = append(custom, command.App{Name: a.Name, Target: a.Target})
	}
	apps = append(custom, apps...)

	aliases := command.DefaultAliases()
	for k, v := range c.Aliases {
		aliases[k] = v
	}

	return command.NewRegistry(apps, aliases)
}
