// Package ipc carries control messages to a running assistant over a unix
// socket, one JSON object per connection.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net"
	"os"
	"strings"
)

const DefaultSocketPath = "/tmp/jarvis.sock"

const (
	CmdSay     = "say"     // feed Text to the assistant as if spoken
	CmdTrigger = "trigger" // start listening on the microphone
	CmdStop    = "stop"    // shut the assistant down
)

var ErrInvalidMessage = errors.New("invalid control message")

type ControlMessage struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

func (m ControlMessage) Validate() error {
	switch m.Cmd {
	case CmdSay:
		if strings.TrimSpace(m.Text) == "" {
			return fmt.Errorf("%w: %s without text", ErrInvalidMessage, m.Cmd)
		}
	case CmdTrigger, CmdStop:
	default:
		return fmt.Errorf("%w: unknown command %q", ErrInvalidMessage, m.Cmd)
	}
	return nil
}

// StartServer listens on path and calls handler for every valid message.
// Closing the returned listener stops the server and removes the socket.
func StartServer(path string, handler func(ControlMessage)) (io.Closer, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if err != nil {
				log.Warn("Control socket accept failed", "err", err)
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return ln, nil
}

func handleConn(conn net.Conn, handler func(ControlMessage)) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Warn("Malformed control message", "err", err)
		return
	}
	if err := msg.Validate(); err != nil {
		log.Warn("Rejected control message", "err", err)
		return
	}
	handler(msg)
}

func SendCommand(path string, msg ControlMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(msg)
}
