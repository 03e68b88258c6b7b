package command

import (
	"regexp"
	"strings"
)

// WakeWord is dropped from every utterance before it is interpreted.
const WakeWord = "jarvis"

var (
	disallowedRe = regexp.MustCompile(`[^\w\s\-'"]+`)
	wakeWordRe   = regexp.MustCompile(`(?i)\b` + WakeWord + `\b[,.!?]?`)
)

type substitution struct {
	from string
	to   string

	re *regexp.Regexp // set for word and pattern entries
}

func literal(from, to string) substitution {
	return substitution{from: from, to: to}
}

func wholeWord(from, to string) substitution {
	return substitution{
		from: from,
		to:   to,
		re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(from) + `\b`),
	}
}

func pattern(expr, to string) substitution {
	return substitution{from: expr, to: to, re: regexp.MustCompile(expr)}
}

func (s substitution) apply(text string) string {
	if s.re != nil {
		return s.re.ReplaceAllString(text, s.to)
	}
	return strings.ReplaceAll(text, s.from, s.to)
}

// Order matters: each entry runs on the output of the ones before it.
var substitutions = []substitution{
	// recycle bin
	literal("recycling bin", "recycle bin"),
	literal("trash can", "recycle bin"),
	literal("trash bin", "recycle bin"),
	literal("waste bin", "recycle bin"),
	literal("garbage bin", "recycle bin"),
	literal("garbage", "recycle bin"),
	literal("open recycling", "open recycle bin"),
	literal("open trash", "open recycle bin"),
	literal("empty recycling", "empty recycle bin"),
	literal("empty trash", "empty recycle bin"),
	literal("clear recycle bin", "empty recycle bin"),
	literal("delete recycle bin", "empty recycle bin"),

	// common misrecognitions of "recycle"
	wholeWord("reciting", "recycle"),
	wholeWord("recycling", "recycle"),
	wholeWord("recipe", "recycle"),
	wholeWord("recent", "recycle"),
	wholeWord("receive", "recycle"),
	wholeWord("recycle", "recycle bin"),
	pattern(`\brecycle bin( bin\b)+`, "recycle bin"),

	// time
	literal("what is the time", "time"),
	literal("tell me the time", "time"),
	literal("current time", "time"),
	literal("what time is it", "time"),

	// search
	literal("google search", "search"),
	literal("search google", "search"),
	literal("look for", "search"),
	literal("find on internet", "search"),
	literal("search for", "search"),

	// youtube
	literal("youtube video", "youtube"),
	literal("play video", "youtube"),
	literal("watch video", "youtube"),
	literal("open youtube", "youtube"),

	// applications
	literal("launch application", "open"),
	literal("start program", "open"),
	literal("run application", "open"),
	literal("start app", "open"),
	literal("launch", "open"),
	wholeWord("start", "open"),
	wholeWord("run", "open"),
}

// The table is re-applied until nothing changes, since its output can form
// phrases an earlier entry rewrites ("launch youtube"). A chain of repeated
// verbs drops one word per pass, so the bound grows with the word count.
const extraPasses = 8

// Normalize rewrites a recognized utterance into the canonical lowercase form
// the classifier and extractors work on.
func Normalize(raw string) string {
	text := strings.TrimSpace(strings.ToLower(raw))
	if text == "" {
		return ""
	}

	text = disallowedRe.ReplaceAllString(text, " ")

	for range len(strings.Fields(text)) + extraPasses {
		next := collapse(substitute(text))
		if next == text {
			break
		}
		text = next
	}

	return text
}

// StripWakeWord removes the assistant's name from an utterance.
func StripWakeWord(raw string) string {
	return collapse(wakeWordRe.ReplaceAllString(raw, " "))
}

func substitute(text string) string {
	for _, s := range substitutions {
		text = s.apply(text)
	}
	return text
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
