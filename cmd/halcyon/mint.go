package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
)

var startmint = cli.Command{
	Name:  "startmint",
	Usage: "start a batched mint job",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "wallet-address", Usage: "minting wallet address", Required: true},
		&cli.StringFlag{Name: "ticker", Usage: "token to mint", Required: true},
		&cli.IntFlag{Name: "count", Usage: "number of mint operations", Required: true},
		&cli.StringFlag{Name: "fee-ceiling", Usage: "per-unit fee ceiling in smallest unit", Required: true},
		&cli.StringFlag{Name: "job-id", Usage: "optional job id, generated when omitted"},
	},
	Action: startMintAction,
}

var stopmint = cli.Command{
	Name:  "stopmint",
	Usage: "request the stop of a running mint job",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "job-id", Required: true},
	},
	Action: stopMintAction,
}

var watchmint = cli.Command{
	Name:  "watchmint",
	Usage: "stream the progress events of a mint job",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "job-id", Usage: "job to watch, omit for all jobs"},
	},
	Action: watchMintAction,
}

func startMintAction(ctx *cli.Context) error {
	result, err := call(ctx, "mint.start", map[string]interface{}{
		"jobId":         ctx.String("job-id"),
		"walletAddress": ctx.String("wallet-address"),
		"ticker":        ctx.String("ticker"),
		"targetCount":   ctx.Int("count"),
		"feeCeiling":    ctx.String("fee-ceiling"),
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func stopMintAction(ctx *cli.Context) error {
	result, err := call(ctx, "mint.stop", map[string]string{
		"jobId": ctx.String("job-id"),
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

type progressEvent struct {
	JobId     string `json:"jobId"`
	Completed int    `json:"completedCount"`
	Target    int    `json:"targetCount"`
	TxId      string `json:"lastTransactionId"`
	Status    string `json:"status"`
	Error     string `json:"error"`
}

func watchMintAction(ctx *cli.Context) error {
	conn, err := dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(requestFrame{
		Id:     "subscribe",
		Method: "progress.subscribe",
		Params: map[string]string{"jobId": ctx.String("job-id")},
	}); err != nil {
		return err
	}

	watched := ctx.String("job-id")
	for {
		frame := responseFrame{}
		if err := conn.ReadJSON(&frame); err != nil {
			return err
		}
		if frame.Error != "" {
			return errors.New(frame.Error)
		}
		if frame.Method != "progress" {
			continue
		}

		event := progressEvent{}
		if err := json.Unmarshal(frame.Params, &event); err != nil {
			return err
		}
		line := fmt.Sprintf(
			"%s %d/%d %s", event.JobId, event.Completed, event.Target, event.Status,
		)
		if event.TxId != "" {
			line += " " + event.TxId
		}
		if event.Error != "" {
			line += " " + event.Error
		}
		fmt.Println(line)

		terminal := event.Status == "finished" || event.Status == "stopped" ||
			event.Status == "error"
		if terminal && watched != "" && event.JobId == watched {
			return nil
		}
	}
}
