package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"jarvis/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	stop := cli.Bool("stop", false, "Shut the assistant down")
	trigger := cli.Bool("trigger", false, "Start listening on the microphone")
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: jarvis-ctl [flags] [command text]\n")
		cli.PrintDefaults()
	}
	cli.Parse()

	msg := ipc.ControlMessage{Cmd: ipc.CmdSay, Text: strings.Join(cli.Args(), " ")}
	switch {
	case *stop:
		msg = ipc.ControlMessage{Cmd: ipc.CmdStop}
	case *trigger:
		msg = ipc.ControlMessage{Cmd: ipc.CmdTrigger}
	case msg.Text == "":
		cli.Usage()
		os.Exit(2)
	}

	if err := ipc.SendCommand(*socket, msg); err != nil {
		fmt.Println("jarvis not running:", err)
		os.Exit(1)
	}
}
