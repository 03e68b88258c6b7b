package command

import "testing"

const testCity = "Ahmedabad"

func TestExtractCity(t *testing.T) {
	tests := []struct {
		input     string
		city      string
		defaulted bool
	}{
		{"what's the weather in Tokyo", "Tokyo", false},
		{"how is the weather for New York", "New York", false},
		{"in Berlin weather", "Berlin", false},
		{"weather in paris", "paris", false},
		{"weather", testCity, true},
		{"what is the weather like", testCity, true},
		{"weather in x", testCity, true},
		{"", testCity, true},
	}

	for _, test := range tests {
		city, defaulted := ExtractCity(test.input, testCity)
		if city != test.city || defaulted != test.defaulted {
			t.Errorf("ExtractCity(%q) = (%q, %v); expected (%q, %v)",
				test.input, city, defaulted, test.city, test.defaulted)
		}
	}
}

func TestExtractQuery(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"search python tutorials", "python tutorials"},
		{"search for golang", "golang"},
		{"python tutorials search", "python tutorials"},
		{"how tall is mount everest", "how tall is mount everest"},
		{"search", ""},
		{"google", ""},
		{"find", ""},
	}

	for _, test := range tests {
		if got := ExtractQuery(test.input); got != test.expected {
			t.Errorf("ExtractQuery(%q) = %q; expected %q", test.input, got, test.expected)
		}
	}
}

func TestExtractVideo(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"play despacito on youtube", "despacito"},
		{"youtube funny cats videos", "funny cats"},
		{"lofi beats youtube", "lofi beats"},
		{"youtube", ""},
		{"play video", ""},
	}

	for _, test := range tests {
		if got := ExtractVideo(test.input); got != test.expected {
			t.Errorf("ExtractVideo(%q) = %q; expected %q", test.input, got, test.expected)
		}
	}
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		input   string
		contact string
		message string
	}{
		{"whatsapp to mom saying i will be late", "mom", "i will be late"},
		{"send a message to john that dinner is ready", "john", "dinner is ready"},
		{"whatsapp", "", ""},
		{"open whatsapp", "", ""},
	}

	for _, test := range tests {
		contact, message := ExtractMessage(test.input)
		if contact != test.contact || message != test.message {
			t.Errorf("ExtractMessage(%q) = (%q, %q); expected (%q, %q)",
				test.input, contact, message, test.contact, test.message)
		}
	}
}

func TestExtractorDispatchesByIntent(t *testing.T) {
	ex := &Extractor{
		Registry:    NewRegistry(DefaultApps(), DefaultAliases()),
		DefaultCity: testCity,
	}

	arg := ex.Extract(Weather, Parse("Jarvis what's the weather in Tokyo"))
	if arg.City != "Tokyo" || arg.CityDefaulted {
		t.Errorf("weather argument = %+v", arg)
	}

	arg = ex.Extract(Search, Parse("search"))
	if arg.Query != "" {
		t.Errorf("expected missing query, got %q", arg.Query)
	}

	arg = ex.Extract(OpenApp, Parse("launch visual studio code"))
	if arg.App.Status != AppResolved || arg.App.Name != "code" {
		t.Errorf("open app argument = %+v", arg.App)
	}

	arg = ex.Extract(Time, Parse("time"))
	if arg.City != "" || arg.Query != "" || arg.App.Status != AppMissing {
		t.Errorf("time takes no argument, got %+v", arg)
	}
}
