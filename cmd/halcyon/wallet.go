package main

import (
	"fmt"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var unlock = cli.Command{
	Name:   "unlock",
	Usage:  "unlock the vault, creating it on first use",
	Action: unlockAction,
}

var lock = cli.Command{
	Name:   "lock",
	Usage:  "lock the vault",
	Action: lockAction,
}

var changepassword = cli.Command{
	Name:   "changepassword",
	Usage:  "change the vault password",
	Action: changePasswordAction,
}

var createwallet = cli.Command{
	Name:  "createwallet",
	Usage: "create a wallet with a fresh key",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "wallet name", Required: true},
	},
	Action: createWalletAction,
}

var importwallet = cli.Command{
	Name:  "importwallet",
	Usage: "import a wallet from a hex seed",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "wallet name", Required: true},
		&cli.StringFlag{Name: "seed", Usage: "hex-encoded seed", Required: true},
	},
	Action: importWalletAction,
}

var renamewallet = cli.Command{
	Name:  "renamewallet",
	Usage: "rename a wallet",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "old-name", Required: true},
		&cli.StringFlag{Name: "new-name", Required: true},
	},
	Action: renameWalletAction,
}

var deletewallet = cli.Command{
	Name:  "deletewallet",
	Usage: "delete a wallet and its key",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Required: true},
	},
	Action: deleteWalletAction,
}

var listwallets = cli.Command{
	Name:   "listwallets",
	Usage:  "list the registered wallets",
	Action: listWalletsAction,
}

var balance = cli.Command{
	Name:  "balance",
	Usage: "query the balance of an address",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "address", Required: true},
		&cli.StringFlag{Name: "ticker", Usage: "asset ticker, omit for the native coin"},
	},
	Action: balanceAction,
}

var assetinfo = cli.Command{
	Name:  "assetinfo",
	Usage: "query the metadata of a token",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "ticker", Required: true},
	},
	Action: assetInfoAction,
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func unlockAction(ctx *cli.Context) error {
	password, err := readPassword("vault password: ")
	if err != nil {
		return err
	}
	result, err := call(ctx, "vault.unlock", map[string]string{
		"password": password,
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func lockAction(ctx *cli.Context) error {
	result, err := call(ctx, "vault.lock", nil)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func changePasswordAction(ctx *cli.Context) error {
	oldPassword, err := readPassword("current password: ")
	if err != nil {
		return err
	}
	newPassword, err := readPassword("new password: ")
	if err != nil {
		return err
	}
	result, err := call(ctx, "vault.changePassword", map[string]string{
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func createWalletAction(ctx *cli.Context) error {
	result, err := call(ctx, "wallet.create", map[string]string{
		"name": ctx.String("name"),
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func importWalletAction(ctx *cli.Context) error {
	result, err := call(ctx, "wallet.import", map[string]string{
		"name": ctx.String("name"),
		"seed": ctx.String("seed"),
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func renameWalletAction(ctx *cli.Context) error {
	result, err := call(ctx, "wallet.rename", map[string]string{
		"oldName": ctx.String("old-name"),
		"newName": ctx.String("new-name"),
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func deleteWalletAction(ctx *cli.Context) error {
	result, err := call(ctx, "wallet.delete", map[string]string{
		"name": ctx.String("name"),
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func listWalletsAction(ctx *cli.Context) error {
	result, err := call(ctx, "wallet.list", nil)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func balanceAction(ctx *cli.Context) error {
	result, err := call(ctx, "balance.get", map[string]string{
		"address": ctx.String("address"),
		"ticker":  ctx.String("ticker"),
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func assetInfoAction(ctx *cli.Context) error {
	result, err := call(ctx, "asset.info", map[string]string{
		"ticker": ctx.String("ticker"),
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}
