package dispatch

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math/rand/v2"
	"net/url"
	"runtime"
	"strings"
	"time"

	"jarvis/internal/command"
	"jarvis/internal/trash"
	"jarvis/internal/weather"
)

// Signal tells the assistant loop whether to keep going.
type Signal int

const (
	Continue Signal = iota
	Terminate
)

func (s Signal) String() string {
	if s == Terminate {
		return "terminate"
	}
	return "continue"
}

type Speaker interface {
	Speak(text string)
}

type Browser interface {
	OpenURL(u string) error
}

type Launcher interface {
	Launch(target string) error
}

type Trash interface {
	Open(ctx context.Context) error
	// Empty returns the number of removed items, or -1 when the platform
	// does not report it.
	Empty(ctx context.Context) (int, error)
}

type WeatherProvider interface {
	Current(ctx context.Context, city string) (weather.Report, error)
}

const (
	googleSearchURL  = "https://www.google.com/search?q="
	youtubeSearchURL = "https://www.youtube.com/results?search_query="
	youtubeHomeURL   = "https://www.youtube.com"
	whatsappWebURL   = "https://web.whatsapp.com/"
	whatsappSendURI  = "whatsapp://send?text="
	whatsappOpenURI  = "whatsapp:"
)

var greetings = []string{
	"Hello! This is Jarvis. How can I help you today?",
	"Hi there! Jarvis at your service. What can I do for you?",
	"Hey! Jarvis here. What do you need?",
	"Greetings! Jarvis ready to assist you.",
}

var unknownReplies = []string{
	"I'm not sure I understand, sir. Could you rephrase that?",
	"I didn't catch that. What would you like me to do?",
	"Sorry, I don't know how to help with that yet. Try commands like 'what time is it', 'open recycle bin', or 'search for something'.",
	"I'm still learning. Could you try a different command? Say 'help' to see what I can do.",
}

const helpText = "Here are some commands you can try. " +
	"What time is it? " +
	"What's the weather in London? " +
	"Open recycle bin. " +
	"Empty recycle bin. " +
	"Search for Python tutorials. " +
	"Open Chrome. " +
	"Play music on YouTube. " +
	"Open WhatsApp. " +
	"Open notepad. " +
	"Say goodbye to exit."

const GoodbyeText = "Shutting down, sir. Jarvis going offline."

type Config struct {
	Speaker  Speaker
	Browser  Browser
	Launcher Launcher
	Trash    Trash
	Weather  WeatherProvider

	// GOOS selects platform behaviour; the WhatsApp desktop app is only
	// tried on windows. Defaults to runtime.GOOS.
	GOOS string

	// Now and Pick default to the wall clock and math/rand.
	Now  func() time.Time
	Pick func(n int) int
}

// Dispatcher turns a classified command into one action.
type Dispatcher struct {
	cfg Config
}

func New(cfg Config) *Dispatcher {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Pick == nil {
		cfg.Pick = rand.IntN
	}
	if cfg.GOOS == "" {
		cfg.GOOS = runtime.GOOS
	}
	return &Dispatcher{cfg: cfg}
}

// Dispatch runs the action for intent. Failures are spoken and logged, never
// returned; only Goodbye yields Terminate.
func (d *Dispatcher) Dispatch(ctx context.Context, intent command.Intent, arg command.Argument) Signal {
	log.Debug("Dispatching", "intent", intent.String())

	switch intent {
	case command.Goodbye:
		d.say(GoodbyeText)
		return Terminate
	case command.Greeting:
		d.say(greetings[d.cfg.Pick(len(greetings))])
	case command.Help:
		d.say(helpText)
	case command.Time:
		d.tellTime()
	case command.Weather:
		d.weather(ctx, arg)
	case command.Search:
		d.search(arg.Query)
	case command.YouTube:
		d.youtube(arg.Query)
	case command.WhatsApp:
		d.whatsapp(arg.Contact, arg.Message)
	case command.OpenApp:
		d.openApp(arg.App)
	case command.RecycleBinOpen:
		d.openTrash(ctx)
	case command.RecycleBinEmpty:
		d.emptyTrash(ctx)
	default:
		d.say(unknownReplies[d.cfg.Pick(len(unknownReplies))])
	}

	return Continue
}

func (d *Dispatcher) say(text string) {
	d.cfg.Speaker.Speak(text)
}

func (d *Dispatcher) tellTime() {
	now := d.cfg.Now()
	d.say(fmt.Sprintf("The current time is %s on %s",
		now.Format("03:04 PM"), now.Format("Monday, January 02, 2006")))
}

func (d *Dispatcher) weather(ctx context.Context, arg command.Argument) {
	city := arg.City
	if arg.CityDefaulted {
		d.say(fmt.Sprintf("No city specified. Showing weather for %s.", city))
	}

	r, err := d.cfg.Weather.Current(ctx, city)
	switch {
	case errors.Is(err, weather.ErrCityNotFound):
		log.Warn("Unknown city", "city", city)
		d.say(fmt.Sprintf("Sorry, I couldn't find weather information for %s.", city))
		return
	case err != nil:
		log.Error("Weather API error", "city", city, "err", err)
		d.say("Sorry, there was an error connecting to the weather service.")
		return
	}

	d.say(fmt.Sprintf(
		"The weather in %s is %s with a temperature of %.1f°C, feels like %.1f°C, and humidity at %d%%",
		city, r.Condition, r.Temperature, r.FeelsLike, r.Humidity))
}

func (d *Dispatcher) search(query string) {
	if query == "" {
		d.say("What would you like me to search for?")
		return
	}

	d.say("Searching for " + query)
	d.browse(googleSearchURL + url.QueryEscape(query))
}

func (d *Dispatcher) youtube(query string) {
	if query == "" {
		d.say("Opening YouTube.")
		d.browse(youtubeHomeURL)
		return
	}

	d.say("Searching YouTube for " + query)
	d.browse(youtubeSearchURL + url.QueryEscape(query))
}

func (d *Dispatcher) whatsapp(contact, message string) {
	app, web := whatsappOpenURI, whatsappWebURL
	if contact != "" {
		d.say(fmt.Sprintf("Opening WhatsApp to message %s.", contact))
		app = whatsappSendURI + url.PathEscape(message)
		web = whatsappWebURL + "send?text=" + url.QueryEscape(message)
	} else {
		d.say("Opening WhatsApp.")
	}

	// xdg-open and open succeed even when no whatsapp: handler is registered.
	if d.cfg.GOOS != "windows" {
		d.browse(web)
		return
	}

	if err := d.cfg.Launcher.Launch(app); err != nil {
		log.Warn("WhatsApp app unavailable", "err", err)
		d.browse(web)
	}
}

func (d *Dispatcher) openApp(res command.Resolution) {
	switch res.Status {
	case command.AppMissing:
		d.say("Which application would you like to open?")
	case command.AppUnresolved:
		log.Debug("No app matched", "name", res.Name, "suggestions", res.Suggestions)
		d.say(fmt.Sprintf("Sorry, I don't know how to open %s. Some available apps are: %s",
			res.Name, strings.Join(res.Suggestions, ", ")))
	case command.AppResolved:
		d.say("Opening " + res.Name)
		if err := d.cfg.Launcher.Launch(res.Target); err != nil {
			log.Error("Failed to open app", "app", res.Name, "target", res.Target, "err", err)
			d.say("Sorry, I couldn't open " + res.Name)
		}
	}
}

func (d *Dispatcher) openTrash(ctx context.Context) {
	d.say("Opening the recycle bin now.")
	if err := d.cfg.Trash.Open(ctx); err != nil {
		log.Error("Failed to open recycle bin", "err", err)
		if errors.Is(err, trash.ErrNotFound) {
			d.say("I couldn't locate the recycle bin on this system.")
			return
		}
		d.say("I had trouble opening the recycle bin. Please try opening it manually.")
		return
	}
	d.say("Recycle bin opened successfully.")
}

func (d *Dispatcher) emptyTrash(ctx context.Context) {
	d.say("Warning: this action is permanent and cannot be undone.")

	n, err := d.cfg.Trash.Empty(ctx)
	switch {
	case errors.Is(err, trash.ErrNotFound):
		log.Error("Failed to empty recycle bin", "err", err)
		d.say("I couldn't locate the recycle bin on this system.")
	case err != nil:
		log.Error("Failed to empty recycle bin", "err", err)
		d.say("I ran into an error trying to empty the recycle bin.")
	case n == 0:
		d.say("The recycle bin is already empty.")
	case n < 0:
		d.say("The recycle bin has been emptied successfully.")
	default:
		d.say(fmt.Sprintf("Emptied %d items from the recycle bin.", n))
	}
}

func (d *Dispatcher) browse(u string) {
	if err := d.cfg.Browser.OpenURL(u); err != nil {
		log.Error("Failed to open browser", "url", u, "err", err)
		d.say("Sorry, I couldn't open the browser.")
	}
}
