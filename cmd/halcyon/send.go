package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

var send = cli.Command{
	Name:  "send",
	Usage: "dispatch a transfer across one or more wallets",
	Description: `One-to-many: --mode oneToMany --sender <addr> --recipient <addr>:<amount> [--recipient ...]
Many-to-one: --mode manyToOne --sender <addr> [--sender ...] --recipient <addr>:<amount>`,
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "mode", Usage: "oneToMany or manyToOne", Required: true},
		&cli.StringSliceFlag{Name: "sender", Usage: "sending wallet address", Required: true},
		&cli.StringSliceFlag{Name: "recipient", Usage: "recipient as <address>:<amount>", Required: true},
		&cli.StringFlag{Name: "ticker", Usage: "asset ticker, omit for the native coin"},
		&cli.StringFlag{Name: "fee-ceiling", Usage: "fee ceiling in smallest unit", Required: true},
	},
	Action: sendAction,
}

func sendAction(ctx *cli.Context) error {
	recipients := make([]map[string]string, 0, len(ctx.StringSlice("recipient")))
	for _, raw := range ctx.StringSlice("recipient") {
		parts := strings.SplitN(raw, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("malformed recipient %s, expected <address>:<amount>", raw)
		}
		recipients = append(recipients, map[string]string{
			"address": parts[0],
			"amount":  parts[1],
		})
	}

	result, err := call(ctx, "send.dispatch", map[string]interface{}{
		"mode":       ctx.String("mode"),
		"senders":    ctx.StringSlice("sender"),
		"recipients": recipients,
		"ticker":     ctx.String("ticker"),
		"feeCeiling": ctx.String("fee-ceiling"),
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}
