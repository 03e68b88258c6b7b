package command

import (
	"regexp"
	"strings"
)

type Intent int

const (
	Unknown Intent = iota
	Greeting
	Goodbye
	Time
	Weather
	Search
	YouTube
	WhatsApp
	OpenApp
	RecycleBinOpen
	RecycleBinEmpty
	Help
)

var intentNames = map[Intent]string{
	Unknown:         "unknown",
	Greeting:        "greeting",
	Goodbye:         "goodbye",
	Time:            "time",
	Weather:         "weather",
	Search:          "search",
	YouTube:         "youtube",
	WhatsApp:        "whatsapp",
	OpenApp:         "open_app",
	RecycleBinOpen:  "recycle_bin_open",
	RecycleBinEmpty: "recycle_bin_empty",
	Help:            "help",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "unknown"
}

// keywords matches any of its phrases as whole words.
type keywords struct {
	re *regexp.Regexp
}

func anyOf(phrases ...string) keywords {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return keywords{re: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

func (k keywords) in(text string) bool {
	return k.re.MatchString(text)
}

// Rule maps a keyword set to an intent. Resolve may refine the intent using the
// rest of the command.
type Rule struct {
	Intent  Intent
	Match   func(text string) bool
	Resolve func(text string) Intent
}

var (
	exitWords     = anyOf("exit", "quit", "goodbye", "bye", "stop", "end", "shutdown")
	helpWords     = anyOf("help")
	greetingWords = anyOf("hello", "hi", "hey", "greetings")
	timeWords     = anyOf("time", "what time", "clock")
	weatherWords  = anyOf("weather", "temperature", "forecast")
	recycleWords  = anyOf("recycle", "bin", "trash", "garbage", "waste")
	emptyBinWords = anyOf("empty", "clear", "delete", "clean", "remove")
	whatsappWords = anyOf("whatsapp")
	youtubeWords  = anyOf("youtube", "play", "watch", "video")
	searchWords   = anyOf("search", "google", "look up", "find")
	openWords     = anyOf("open", "launch", "start", "run")
)

// Rules is the classification table, highest priority first.
var Rules = []Rule{
	{Intent: Goodbye, Match: exitWords.in},
	{Intent: Help, Match: helpWords.in},
	{Intent: Greeting, Match: greetingWords.in},
	{Intent: Time, Match: timeWords.in},
	{Intent: Weather, Match: weatherWords.in},
	{Intent: RecycleBinOpen, Match: recycleWords.in, Resolve: recycleBinAction},
	{Intent: WhatsApp, Match: whatsappWords.in},
	// bare "play"/"watch" land here even without "youtube"
	{Intent: YouTube, Match: youtubeWords.in},
	{Intent: Search, Match: searchWords.in},
	{Intent: OpenApp, Match: openWords.in},
	{Intent: Search, Match: implicitQuery},
}

// Classify returns the intent of a normalized command. The first matching rule
// wins.
func Classify(text string) Intent {
	if text == "" {
		return Unknown
	}

	for _, r := range Rules {
		if !r.Match(text) {
			continue
		}
		if r.Resolve != nil {
			return r.Resolve(text)
		}
		return r.Intent
	}

	return Unknown
}

// recycleBinAction defaults to opening the bin unless emptying was asked for.
func recycleBinAction(text string) Intent {
	if emptyBinWords.in(text) {
		return RecycleBinEmpty
	}
	return RecycleBinOpen
}

// implicitQuery treats a longer statement as something to search for.
func implicitQuery(text string) bool {
	if strings.ContainsAny(text, "?!") {
		return false
	}
	return len(strings.Fields(text)) > 2
}
