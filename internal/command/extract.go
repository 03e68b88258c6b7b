package command

import (
	"regexp"
	"strings"
)

// Command is one utterance in both forms: Raw keeps the speaker's casing with
// the wake word removed, Text is normalized.
type Command struct {
	Raw  string
	Text string
}

func Parse(utterance string) Command {
	raw := StripWakeWord(utterance)
	return Command{
		Raw:  raw,
		Text: Normalize(raw),
	}
}

// Argument is the payload an intent needs. Only the fields of the classified
// intent are set.
type Argument struct {
	City          string
	CityDefaulted bool

	// Query is empty when the user did not say what to look for.
	Query string

	// Contact and Message are empty when WhatsApp should just be opened.
	Contact string
	Message string

	App Resolution
}

// Extractor pulls intent arguments out of a command.
type Extractor struct {
	Registry    *Registry
	DefaultCity string
}

func (e *Extractor) Extract(intent Intent, cmd Command) Argument {
	switch intent {
	case Weather:
		city, defaulted := ExtractCity(cmd.Raw, e.DefaultCity)
		return Argument{City: city, CityDefaulted: defaulted}
	case Search:
		return Argument{Query: ExtractQuery(cmd.Text)}
	case YouTube:
		return Argument{Query: ExtractVideo(cmd.Text)}
	case WhatsApp:
		contact, message := ExtractMessage(cmd.Text)
		return Argument{Contact: contact, Message: message}
	case OpenApp:
		return Argument{App: e.Registry.Resolve(cmd.Text)}
	default:
		return Argument{}
	}
}

var (
	cityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)weather (?:in|for|at|of) ([a-z\s]+)`),
		regexp.MustCompile(`(?i)(?:in|for|at|of) ([a-z\s]+) weather`),
		regexp.MustCompile(`(?i)weather ([a-z\s]+)`),
	}
	cityStopWords = wordSet("the", "is", "like", "what")

	queryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:search|google|look up|find)(?: for)?\s+(.+)`),
		regexp.MustCompile(`(?i)(?:search|google|look up|find)\s+(.+)`),
		regexp.MustCompile(`(?i)(.+?)\s+(?:on google|search)`),
	}
	queryTriggers = wordSet("search", "google", "find", "for")

	videoPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:youtube|play|watch)\s+(.+)`),
		regexp.MustCompile(`(?i)(.+?)\s+(?:on youtube|youtube)`),
		regexp.MustCompile(`(?i)(?:open youtube and (?:search|find|play|watch))\s+(.+)`),
	}
	videoStopWords = wordSet("video", "videos", "on", "youtube")

	messageRe = regexp.MustCompile(`(?i)(?:whatsapp|message|text)\s+(.+?)\s+(?:saying|that)\s+(.+)`)
)

// ExtractCity finds the city a weather request is about. It returns fallback
// and true when none was named.
func ExtractCity(cmd, fallback string) (string, bool) {
	city := ""
	for _, re := range cityPatterns {
		if m := re.FindStringSubmatch(cmd); m != nil {
			city = dropWords(m[1], cityStopWords)
			break
		}
	}

	if len(city) < 2 {
		return fallback, true
	}
	return city, false
}

// ExtractQuery returns what a search request asks for, or "".
func ExtractQuery(cmd string) string {
	for _, re := range queryPatterns {
		if m := re.FindStringSubmatch(cmd); m != nil {
			if q := strings.TrimSpace(m[1]); q != "" {
				return q
			}
		}
	}

	// "look up" is a phrase; drop it before the word filter so that a lone
	// "up" elsewhere survives.
	rest := strings.ReplaceAll(strings.ToLower(cmd), "look up", " ")
	return dropWords(rest, queryTriggers)
}

// ExtractVideo returns the YouTube search terms, or "" for the home page.
func ExtractVideo(cmd string) string {
	for _, re := range videoPatterns {
		if m := re.FindStringSubmatch(cmd); m != nil {
			return dropWords(m[1], videoStopWords)
		}
	}
	return ""
}

// ExtractMessage returns the contact and text of a WhatsApp message. Both are
// empty when the command does not dictate one.
func ExtractMessage(cmd string) (contact, message string) {
	m := messageRe.FindStringSubmatch(cmd)
	if m == nil {
		return "", ""
	}

	contact = strings.TrimSpace(m[1])
	contact = strings.TrimSpace(strings.TrimPrefix(contact, "to "))
	message = strings.TrimSpace(m[2])
	if contact == "" || message == "" {
		return "", ""
	}
	return contact, message
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func dropWords(text string, drop map[string]struct{}) string {
	var kept []string
	for _, w := range strings.Fields(text) {
		if _, ok := drop[strings.ToLower(w)]; ok {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
