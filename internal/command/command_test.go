package command

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"   ", ""},
		{"Trash can", "recycle bin"},
		{"Open the Garbage!", "open the recycle bin"},
		{"recycle bin", "recycle bin"},
		{"Launch Chrome", "open chrome"},
		{"start notepad", "open notepad"},
		{"restart the computer", "restart the computer"},
		{"Look for cats", "search cats"},
		{"What time is it?", "time"},
		{"Hello,   World", "hello world"},
		{"don't stop", "don't stop"},
		{"launch youtube", "youtube"},
		{"empty trash", "empty recycle bin"},
	}

	for _, test := range tests {
		result := Normalize(test.input)
		if result != test.expected {
			t.Errorf("Normalize(%q) = %q; expected %q", test.input, result, test.expected)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	samples := []string{
		"Trash can",
		"open the garbage bin please",
		"Jarvis, what is the time?",
		"google search for golang generics",
		"launch visual studio code",
		"start app calculator",
		"play video of cats on YouTube",
		"clear recycle bin",
		"show me recent files",
		"weather in New-York",
	}

	for _, s := range samples {
		once := Normalize(s)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}

var normalizeTokens = []string{
	"launch", "open", "run", "start", "app", "application", "program",
	"youtube", "video", "play", "watch", "recycle", "recycling", "bin",
	"trash", "garbage", "empty", "clear", "search", "for", "google", "time",
}

func assertStable(t *testing.T, s string) {
	t.Helper()
	once := Normalize(s)
	if twice := Normalize(once); once != twice {
		t.Errorf("Normalize not idempotent for %q: %q then %q", s, once, twice)
	}
}

func TestNormalizeIdempotentCombinations(t *testing.T) {
	var walk func(prefix []string, depth int)
	walk = func(prefix []string, depth int) {
		assertStable(t, strings.Join(prefix, " "))
		if depth == 0 {
			return
		}
		for _, tok := range normalizeTokens {
			walk(append(prefix, tok), depth-1)
		}
	}
	walk(nil, 3)

	rng := rand.New(rand.NewPCG(1, 2))
	for range 20000 {
		words := make([]string, 5+rng.IntN(8))
		for i := range words {
			words[i] = normalizeTokens[rng.IntN(len(normalizeTokens))]
		}
		assertStable(t, strings.Join(words, " "))
	}
}

func TestNormalizeRepeatedVerbs(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"launch open launch youtube", "youtube"},
		{"run launch launch youtube", "youtube"},
		{"open open open open open open open open open open youtube", "youtube"},
		{"garbage bin", "recycle bin"},
		{"recycle bin bin", "recycle bin"},
	}

	for _, test := range tests {
		if result := Normalize(test.input); result != test.expected {
			t.Errorf("Normalize(%q) = %q; expected %q", test.input, result, test.expected)
		}
	}
}

func TestNormalizeSynonyms(t *testing.T) {
	for _, s := range []string{"trash can", "recycling bin", "garbage", "waste bin", "trash bin"} {
		if got := Normalize(s); !strings.Contains(got, "recycle bin") {
			t.Errorf("Normalize(%q) = %q; expected it to contain %q", s, got, "recycle bin")
		}
	}
}

func TestStripWakeWord(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"jarvis what time is it", "what time is it"},
		{"Jarvis, open Chrome", "open Chrome"},
		{"hey jarvis", "hey"},
		{"jarvis", ""},
		{"jarvisville", "jarvisville"},
	}

	for _, test := range tests {
		if got := StripWakeWord(test.input); got != test.expected {
			t.Errorf("StripWakeWord(%q) = %q; expected %q", test.input, got, test.expected)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		input    string
		expected Intent
	}{
		{"", Unknown},
		{"blah", Unknown},
		{"weekend plans", Unknown},
		{"exit", Goodbye},
		{"goodbye", Goodbye},
		{"exit weather", Goodbye},
		{"what's the weather stop", Goodbye},
		{"help", Help},
		{"help me open chrome", Help},
		{"hello there", Greeting},
		{"time", Time},
		{"what's the clock say", Time},
		{"weather in tokyo", Weather},
		{"temperature in paris", Weather},
		{"open recycle bin", RecycleBinOpen},
		{"recycle bin", RecycleBinOpen},
		{"show the trash", RecycleBinOpen},
		{"empty recycle bin", RecycleBinEmpty},
		{"clean the recycle bin", RecycleBinEmpty},
		{"whatsapp mom that i am late", WhatsApp},
		{"open whatsapp", WhatsApp},
		{"youtube", YouTube},
		{"play despacito", YouTube},
		{"watch the news", YouTube},
		{"search python tutorials", Search},
		{"google golang", Search},
		{"look up the capital of peru", Search},
		{"open chrome", OpenApp},
		{"how tall is mount everest", Search},
	}

	for _, test := range tests {
		if got := Classify(test.input); got != test.expected {
			t.Errorf("Classify(%q) = %s; expected %s", test.input, got, test.expected)
		}
	}
}

func TestClassifyParsedUtterance(t *testing.T) {
	tests := []struct {
		utterance string
		expected  Intent
	}{
		{"jarvis what time is it", Time},
		{"Jarvis, launch VS Code", OpenApp},
		{"Jarvis please empty the trash", RecycleBinEmpty},
		{"Goodbye Jarvis", Goodbye},
		{"jarvis", Unknown},
	}

	for _, test := range tests {
		cmd := Parse(test.utterance)
		if got := Classify(cmd.Text); got != test.expected {
			t.Errorf("Classify(Parse(%q)) = %s; expected %s (text %q)", test.utterance, got, test.expected, cmd.Text)
		}
	}
}

func TestIntentString(t *testing.T) {
	if got := RecycleBinEmpty.String(); got != "recycle_bin_empty" {
		t.Errorf("String() = %q", got)
	}
	if got := Intent(99).String(); got != "unknown" {
		t.Errorf("String() for out of range = %q", got)
	}
}
