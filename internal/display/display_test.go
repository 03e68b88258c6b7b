package display

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type recordingSink struct{ snaps []Snapshot }

func (r *recordingSink) Publish(s Snapshot) { r.snaps = append(r.snaps, s) }

func TestPanelState(t *testing.T) {
	sink := &recordingSink{}
	p := NewPanel(sink)

	if p.Snapshot().Status != initialStatus {
		t.Errorf("initial status %q", p.Snapshot().Status)
	}

	p.SetStatus("Listening...")
	p.SetListening(true)
	p.SetTranscription("what time is it")
	p.Say("The current time is 02:07 PM")

	s := p.Snapshot()
	if s.Status != "Jarvis: The current time is 02:07 PM" || s.Transcription != "what time is it" || !s.Listening {
		t.Errorf("snapshot %+v", s)
	}
	if len(sink.snaps) != 4 {
		t.Errorf("published %d snapshots", len(sink.snaps))
	}
	if sink.snaps[0].Status != "Listening..." || sink.snaps[0].Listening {
		t.Errorf("first publish %+v", sink.snaps[0])
	}
}

func TestPanelKeepsRecentLines(t *testing.T) {
	p := NewPanel()
	for _, l := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		p.Say(l)
	}

	got := p.Snapshot().Spoken
	if strings.Join(got, "") != "cdefg" {
		t.Errorf("kept %q", got)
	}

	// snapshots must not alias panel state
	got[0] = "mutated"
	if p.Snapshot().Spoken[0] != "c" {
		t.Error("snapshot shares memory with the panel")
	}
}

func TestRender(t *testing.T) {
	out := Render(Snapshot{Status: "Ready", Transcription: "open chrome", Listening: true, Spoken: []string{"Opening chrome"}}, 1)

	for _, want := range []string{"J.A.R.V.I.S", "Ready", "open chrome", "listening", "Opening chrome"} {
		if !strings.Contains(out, want) {
			t.Errorf("render lacks %q:\n%s", want, out)
		}
	}

	idle := Render(Snapshot{Status: "Ready"}, 0)
	if strings.Contains(idle, "listening") {
		t.Errorf("idle render shows the mic:\n%s", idle)
	}
}

func TestRunWithoutTerminal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer

	done := make(chan error, 1)
	go func() { done <- NewPanel().Run(ctx, &buf) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if buf.Len() != 0 {
		t.Errorf("drew on a non-terminal: %q", buf.String())
	}
}

type recordingLine struct{ lines []string }

func (r *recordingLine) Say(text string) { r.lines = append(r.lines, text) }

func TestTeeAndNotifier(t *testing.T) {
	var got []string
	n := &Notifier{title: "Jarvis", notify: func(title, msg string, _ any) error {
		got = append(got, title+": "+msg)
		return errors.New("no notification daemon")
	}}
	first := &recordingLine{}

	Tee{first, n}.Say("Hello! How can I help you today?")

	if len(first.lines) != 1 {
		t.Errorf("first target got %q", first.lines)
	}
	if len(got) != 1 || got[0] != "Jarvis: Hello! How can I help you today?" {
		t.Errorf("notified %q", got)
	}
}

func TestWSPublisher(t *testing.T) {
	received := make(chan Snapshot, 4)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var s Snapshot
			if err := conn.ReadJSON(&s); err != nil {
				return
			}
			received <- s
		}
	}))
	defer srv.Close()

	pub, err := NewWSPublisher("ws" + strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("NewWSPublisher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pub.Run(ctx)

	p := NewPanel(pub)
	p.SetStatus("Listening...")

	select {
	case s := <-received:
		if s.Status != "Listening..." {
			t.Errorf("received %+v", s)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("snapshot never reached the hub")
	}
}

func TestPublishKeepsLatest(t *testing.T) {
	pub, _ := NewWSPublisher("ws://127.0.0.1:1/")
	for _, s := range []string{"one", "two", "three"} {
		pub.Publish(Snapshot{Status: s})
	}
	if got := <-pub.latest; got.Status != "three" {
		t.Errorf("kept %q", got.Status)
	}
}
