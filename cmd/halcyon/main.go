package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v2"
)

var daemonURLFlag = &cli.StringFlag{
	Name:  "daemon-url",
	Usage: "websocket endpoint of the halcyond daemon",
	Value: "ws://127.0.0.1:18332/ws",
}

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "halcyon CLI"
	app.Usage = "Command line interface for the halcyond wallet daemon"
	app.Flags = append(app.Flags, daemonURLFlag)
	app.Commands = append(
		app.Commands,
		&unlock,
		&lock,
		&changepassword,
		&createwallet,
		&importwallet,
		&renamewallet,
		&deletewallet,
		&listwallets,
		&balance,
		&assetinfo,
		&startmint,
		&stopmint,
		&watchmint,
		&send,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

type requestFrame struct {
	Id     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

type responseFrame struct {
	Id     string          `json:"id"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func dial(ctx *cli.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(ctx.String("daemon-url"), nil)
	if err != nil {
		return nil, fmt.Errorf("is halcyond running? %w", err)
	}
	return conn, nil
}

// call performs one request/response roundtrip over a fresh connection.
func call(ctx *cli.Context, method string, params interface{}) (json.RawMessage, error) {
	conn, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	id := uuid.New().String()
	if err := conn.WriteJSON(requestFrame{id, method, params}); err != nil {
		return nil, err
	}

	for {
		frame := responseFrame{}
		if err := conn.ReadJSON(&frame); err != nil {
			return nil, err
		}
		// Server pushes carry no id; skip anything not answering us.
		if frame.Id != id {
			continue
		}
		if frame.Error != "" {
			return nil, errors.New(frame.Error)
		}
		return frame.Result, nil
	}
}

func printResult(result json.RawMessage) {
	if len(result) == 0 || string(result) == "null" {
		fmt.Println("ok")
		return
	}
	pretty, err := json.MarshalIndent(json.RawMessage(result), "", "  ")
	if err != nil {
		fmt.Println(string(result))
		return
	}
	fmt.Println(string(pretty))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[halcyon] %v\n", err)
	os.Exit(1)
}
