package main

import (
	"bufio"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/timevaultnetwork/timevault-cli/internal/app"
	"github.com/timevaultnetwork/timevault-cli/pkg/duckstore"
	"github.com/timevaultnetwork/timevault-cli/pkg/pgstore"
	"github.com/timevaultnetwork/timevault-cli/pkg/signing"
	"github.com/urfave/cli/v2"
)

var vaultNameRx = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)[.]([a-zA-Z_][a-zA-Z0-9_]*$)`)

func newVaultCreateCommand() *cli.Command {
	var address, unlock string

	return &cli.Command{
		Name:      "create",
		Usage:     "Create a new vault",
		ArgsUsage: "<vault_name>",
		Description: "Create a vault owned by the given account. The unlock time must be \n" +
			"strictly in the future; before it passes, the owner cannot withdraw.\n\nEXAMPLE:\n\n" +
			"timevault create --owner 0x1234abcd --unlock 2024-06-01 my.vault",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "owner",
				Aliases:     []string{"o"},
				Category:    "REQUIRED:",
				Usage:       "Ethereum wallet address of the vault owner",
				Destination: &address,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "unlock",
				Aliases:     []string{"u"},
				Category:    "REQUIRED:",
				Usage:       "The unlock time (unix seconds, ISO 8601 date, or ISO 8601 date & time)",
				Destination: &unlock,
				Required:    true,
			},
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return errors.New("must provide a vault name")
			}

			name, err := parseVaultName(cCtx.Args().First())
			if err != nil {
				return err
			}

			owner, err := app.NewAccount(address)
			if err != nil {
				return fmt.Errorf("not a valid account: %s", err)
			}

			ts, err := app.ParseTimestamp(unlock)
			if err != nil {
				return err
			}

			store, err := openStore(cCtx)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			if err := store.CreateVault(cCtx.Context, app.CreateVaultParams{
				Name:       name,
				Owner:      owner,
				UnlockTime: ts.Seconds(),
			}); err != nil {
				return fmt.Errorf("failed to create vault: %s", err)
			}

			fmt.Printf("\033[32mVault %s created, unlocks at %s.\033[0m\n\n",
				name, time.Unix(ts.Seconds(), 0).UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func newDepositCommand() *cli.Command {
	return depositCommand(
		"deposit",
		"Deposit value into a vault",
		"Anyone can deposit into any vault at any time; deposits only ever \n"+
			"increase the balance. A zero amount is valid and still records an event.\n\n"+
			"EXAMPLE:\n\ntimevault deposit --from 0x1234abcd --amount 100 my.vault",
		func(v *app.Vault, sender *app.Account, amount *big.Int) error {
			return v.Deposit(sender, amount)
		},
	)
}

func newSendCommand() *cli.Command {
	return depositCommand(
		"send",
		"Send value directly to a vault",
		"A bare transfer to the vault. It has the exact same effect and records \n"+
			"the exact same event as an explicit deposit.\n\n"+
			"EXAMPLE:\n\ntimevault send --from 0x1234abcd --amount 100 my.vault",
		func(v *app.Vault, sender *app.Account, amount *big.Int) error {
			return v.Receive(sender, amount)
		},
	)
}

func depositCommand(
	name, usage, description string,
	apply func(*app.Vault, *app.Account, *big.Int) error,
) *cli.Command {
	var address, amount string

	return &cli.Command{
		Name:        name,
		Usage:       usage,
		ArgsUsage:   "<vault_name>",
		Description: description,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "from",
				Aliases:     []string{"f"},
				Category:    "REQUIRED:",
				Usage:       "Ethereum wallet address of the sender",
				Destination: &address,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "amount",
				Aliases:     []string{"a"},
				Category:    "REQUIRED:",
				Usage:       "The amount of value to deposit",
				Destination: &amount,
				Required:    true,
			},
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return errors.New("must provide a vault name")
			}

			vaultName, err := parseVaultName(cCtx.Args().First())
			if err != nil {
				return err
			}

			sender, err := app.NewAccount(address)
			if err != nil {
				return fmt.Errorf("not a valid account: %s", err)
			}

			value, err := parseAmount(amount)
			if err != nil {
				return err
			}

			store, err := openStore(cCtx)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			if err := store.WithVault(cCtx.Context, vaultName, func(v *app.Vault) error {
				return apply(v, sender, value)
			}); err != nil {
				return fmt.Errorf("failed to deposit: %s", err)
			}

			fmt.Printf("Deposited %s into %s.\n", value, vaultName)
			return nil
		},
	}
}

func newExtendCommand() *cli.Command {
	var privateKey, unlock string

	return &cli.Command{
		Name:      "extend",
		Usage:     "Push a vault's unlock time later",
		ArgsUsage: "<vault_name>",
		Description: "Only the owner can extend, and only to a time strictly later than the \n" +
			"current unlock time. The unlock time never moves backwards.\n\n" +
			"EXAMPLE:\n\ntimevault extend --private-key 0x1234abcd --unlock 2024-12-01 my.vault",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "private-key",
				Aliases:     []string{"k"},
				Category:    "REQUIRED:",
				Usage:       "Ethereum wallet private key of the owner",
				Destination: &privateKey,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "unlock",
				Aliases:     []string{"u"},
				Category:    "REQUIRED:",
				Usage:       "The new unlock time (unix seconds, ISO 8601 date, or ISO 8601 date & time)",
				Destination: &unlock,
				Required:    true,
			},
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return errors.New("must provide a vault name")
			}

			vaultName, err := parseVaultName(cCtx.Args().First())
			if err != nil {
				return err
			}

			caller, _, err := accountFromKey(privateKey)
			if err != nil {
				return err
			}

			ts, err := app.ParseTimestamp(unlock)
			if err != nil {
				return err
			}

			store, err := openStore(cCtx)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			if err := store.WithVault(cCtx.Context, vaultName, func(v *app.Vault) error {
				return v.ExtendLock(caller, ts.Seconds())
			}); err != nil {
				return fmt.Errorf("failed to extend lock: %s", err)
			}

			fmt.Printf("Vault %s now unlocks at %s.\n",
				vaultName, time.Unix(ts.Seconds(), 0).UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func newWithdrawCommand() *cli.Command {
	var privateKey, receiptPath string

	return &cli.Command{
		Name:      "withdraw",
		Usage:     "Withdraw the entire balance of a vault",
		ArgsUsage: "<vault_name>",
		Description: "Only the owner can withdraw, and only once the unlock time has passed. \n" +
			"The whole balance is credited to the owner's account and a signed \n" +
			"withdrawal receipt is printed (or written to a file).\n\n" +
			"EXAMPLE:\n\ntimevault withdraw --private-key 0x1234abcd my.vault",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "private-key",
				Aliases:     []string{"k"},
				Category:    "REQUIRED:",
				Usage:       "Ethereum wallet private key of the owner",
				Destination: &privateKey,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "receipt",
				Aliases:     []string{"r"},
				Category:    "OPTIONAL:",
				Usage:       "The file to write the signed withdrawal receipt to",
				DefaultText: "stdout",
				Destination: &receiptPath,
			},
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return errors.New("must provide a vault name")
			}

			vaultName, err := parseVaultName(cCtx.Args().First())
			if err != nil {
				return err
			}

			caller, key, err := accountFromKey(privateKey)
			if err != nil {
				return err
			}

			store, err := openStore(cCtx)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			if err := store.WithVault(cCtx.Context, vaultName, func(v *app.Vault) error {
				return v.Withdraw(caller)
			}); err != nil {
				return fmt.Errorf("failed to withdraw: %s", err)
			}

			events, err := store.ListVaultEvents(cCtx.Context, app.ListVaultEventsParams{
				Vault:  vaultName,
				Latest: 1,
			})
			if err != nil || len(events) == 0 || events[0].Kind != app.EventKindWithdrawal {
				return fmt.Errorf("withdrawal succeeded but its event could not be read back")
			}

			receipt := app.Receipt{
				Vault:     vaultName,
				Owner:     caller.Hex(),
				Amount:    events[0].Amount,
				Timestamp: events[0].Timestamp,
			}
			if err := receipt.Sign(signing.NewSigner(key)); err != nil {
				return fmt.Errorf("failed to sign receipt: %s", err)
			}

			jsonData, err := json.Marshal(receipt)
			if err != nil {
				return fmt.Errorf("error serializing receipt to JSON")
			}

			if receiptPath == "" {
				fmt.Println(string(jsonData))
				return nil
			}
			if err := os.WriteFile(receiptPath, jsonData, 0o644); err != nil {
				return fmt.Errorf("writing to file %s: %s", receiptPath, err)
			}

			fmt.Printf("Withdrew %s from %s, receipt saved in %s.\n", receipt.Amount, vaultName, receiptPath)
			return nil
		},
	}
}

func newBalanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "balance",
		Usage:     "Print the balance held by a vault",
		ArgsUsage: "<vault_name>",
		Action: func(cCtx *cli.Context) error {
			info, store, err := getVaultInfo(cCtx)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			fmt.Println(info.Balance)
			return nil
		},
	}
}

func newStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Print a vault's phase and time until unlock",
		ArgsUsage: "<vault_name>",
		Description: "A vault is locked while the current time is before its unlock time \n" +
			"and unlocked afterwards. Extending the lock can move an unlocked vault \n" +
			"back into the locked phase.\n\nEXAMPLE:\n\ntimevault status my.vault",
		Action: func(cCtx *cli.Context) error {
			info, store, err := getVaultInfo(cCtx)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			owner, err := app.NewAccount(info.Owner)
			if err != nil {
				return fmt.Errorf("corrupt owner: %s", err)
			}

			vault := app.RestoreVault(owner, info.UnlockTime, info.Balance)
			remaining := vault.TimeUntilUnlock()

			fmt.Printf("owner:       %s\n", info.Owner)
			fmt.Printf("balance:     %s\n", info.Balance)
			fmt.Printf("unlock time: %s\n", time.Unix(info.UnlockTime, 0).UTC().Format(time.RFC3339))
			if remaining > 0 {
				fmt.Printf("phase:       locked (%d seconds until unlock)\n", int64(remaining.Seconds()))
			} else {
				fmt.Printf("phase:       unlocked\n")
			}
			return nil
		},
	}
}

func getVaultInfo(cCtx *cli.Context) (*app.VaultInfo, app.VaultStore, error) {
	if cCtx.NArg() != 1 {
		return nil, nil, errors.New("must provide a vault name")
	}

	vaultName, err := parseVaultName(cCtx.Args().First())
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(cCtx)
	if err != nil {
		return nil, nil, err
	}

	info, err := store.GetVault(cCtx.Context, vaultName)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to get vault: %s", err)
	}

	return info, store, nil
}

func newListCommand() *cli.Command {
	var address, format string

	return &cli.Command{
		Name:  "list",
		Usage: "List vaults of a given owner",
		Description: "Listing vaults will show all vaults owned by the provided account's \n" +
			"address, as either line delimited text or a json array.\n\n" +
			"EXAMPLE:\n\ntimevault list --owner 0x1234abcd --format json",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "owner",
				Aliases:     []string{"o"},
				Category:    "REQUIRED:",
				Usage:       "Ethereum wallet address",
				Destination: &address,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "format",
				Category:    "OPTIONAL:",
				Usage:       "The output format (text or json)",
				DefaultText: "text",
				Destination: &format,
				Value:       "text",
			},
		},
		Action: func(cCtx *cli.Context) error {
			owner, err := app.NewAccount(address)
			if err != nil {
				return fmt.Errorf("%s is not a valid Ethereum wallet address", address)
			}

			store, err := openStore(cCtx)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			vaults, err := store.ListVaults(cCtx.Context, app.ListVaultsParams{Owner: owner})
			if err != nil {
				return fmt.Errorf("failed to list vaults: %s", err)
			}

			if format == "text" {
				for _, vault := range vaults {
					fmt.Printf("%s\n", vault)
				}
			} else if format == "json" {
				jsonData, err := json.Marshal(vaults)
				if err != nil {
					return fmt.Errorf("error serializing vaults to JSON")
				}
				fmt.Println(string(jsonData))
			} else {
				return fmt.Errorf("invalid format: %s", format)
			}

			return nil
		},
	}
}

func newListEventsCommand() *cli.Command {
	var vault, before, after, at, format string
	var limit, offset, latest int
	var verify bool

	return &cli.Command{
		Name:      "events",
		Usage:     "List events of a given vault",
		UsageText: "timevault events [command options]",
		Description: "Vault events can be filtered by date ranges (unix, ISO 8601 date,\n" +
			"or ISO 8601 date & time). With --verify, the full journal is checked \n" +
			"against the vault's integrity digest.\n\n" +
			"EXAMPLE:\n\ntimevault events --vault my.vault \\\n" +
			"--limit 10 --offset 3 \\\n--after 2023-09-01 --before 2023-12-01 \\\n" +
			"--format json",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "vault",
				Aliases:     []string{"v"},
				Category:    "REQUIRED:",
				Usage:       "Vault name",
				Destination: &vault,
				Required:    true,
			},
			&cli.IntFlag{
				Name:        "limit",
				Category:    "OPTIONAL:",
				Usage:       "The number of events to fetch",
				DefaultText: "10",
				Destination: &limit,
				Value:       10,
			},
			&cli.IntFlag{
				Name:        "latest",
				Category:    "OPTIONAL:",
				Usage:       "The latest N events to fetch",
				Destination: &latest,
			},
			&cli.IntFlag{
				Name:        "offset",
				Category:    "OPTIONAL:",
				Usage:       "The event to start from",
				DefaultText: "0",
				Destination: &offset,
				Value:       0,
			},
			&cli.StringFlag{
				Name:        "before",
				Category:    "OPTIONAL:",
				Usage:       "Filter events recorded before this timestamp",
				Destination: &before,
				Value:       "",
			},
			&cli.StringFlag{
				Name:        "after",
				Category:    "OPTIONAL:",
				Usage:       "Filter events recorded after this timestamp",
				Destination: &after,
				Value:       "",
			},
			&cli.StringFlag{
				Name:        "at",
				Category:    "OPTIONAL:",
				Usage:       "Filter events recorded at this timestamp",
				Destination: &at,
				Value:       "",
			},
			&cli.StringFlag{
				Name:        "format",
				Category:    "OPTIONAL:",
				Usage:       "The output format (table or json)",
				DefaultText: "table",
				Destination: &format,
				Value:       "table",
			},
			&cli.BoolFlag{
				Name:        "verify",
				Category:    "OPTIONAL:",
				Usage:       "Check the full journal against the vault's integrity digest",
				Destination: &verify,
			},
		},
		Action: func(cCtx *cli.Context) error {
			vaultName, err := parseVaultName(vault)
			if err != nil {
				return err
			}

			store, err := openStore(cCtx)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			if verify {
				return verifyJournal(cCtx, store, vaultName)
			}

			b, a, err := validateBeforeAndAfter(before, after, at)
			if err != nil {
				return err
			}

			if offset < 0 {
				return errors.New("offset has to be greater than 0")
			}
			if limit < 0 {
				return errors.New("limit has to be greater than 0")
			}

			req := app.ListVaultEventsParams{
				Vault:  vaultName,
				Limit:  uint32(limit),
				Offset: uint32(offset),
				Before: b,
				After:  a,
			}
			if latest > 0 {
				req = app.ListVaultEventsParams{
					Vault:  vaultName,
					Latest: uint32(latest),
					Before: b,
					After:  a,
				}
			}

			events, err := store.ListVaultEvents(cCtx.Context, req)
			if err != nil {
				return fmt.Errorf("failed to fetch events: %s", err)
			}

			if format == "table" {
				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"Kind", "Sender", "Amount", "Old Unlock", "New Unlock", "Timestamp"})

				for _, event := range events {
					table.Append(eventRow(event))
				}
				table.Render()
			} else if format == "json" {
				jsonData, err := json.Marshal(events)
				if err != nil {
					return fmt.Errorf("error serializing events to JSON")
				}
				fmt.Println(string(jsonData))
			} else {
				return fmt.Errorf("invalid format: %s", format)
			}
			return nil
		},
	}
}

func eventRow(event app.Event) []string {
	sender, amount, oldUnlock, newUnlock := "(null)", "(null)", "(null)", "(null)"
	if event.Sender != "" {
		sender = event.Sender
	}
	if event.Amount != nil {
		amount = event.Amount.String()
	}
	if event.Kind == app.EventKindLockExtended {
		oldUnlock = time.Unix(event.OldUnlockTime, 0).UTC().Format(time.RFC3339)
		newUnlock = time.Unix(event.NewUnlockTime, 0).UTC().Format(time.RFC3339)
	}
	timestamp := time.Unix(event.Timestamp, 0).UTC().Format(time.RFC3339)

	return []string{string(event.Kind), sender, amount, oldUnlock, newUnlock, timestamp}
}

func verifyJournal(cCtx *cli.Context, store app.VaultStore, name app.VaultName) error {
	info, err := store.GetVault(cCtx.Context, name)
	if err != nil {
		return fmt.Errorf("failed to get vault: %s", err)
	}

	// the digest covers the complete journal, so fetch it unfiltered
	events, err := store.ListVaultEvents(cCtx.Context, app.ListVaultEventsParams{Vault: name})
	if err != nil {
		return fmt.Errorf("failed to fetch events: %s", err)
	}

	if !app.VerifyEvents(events, info.Digest) {
		return fmt.Errorf("journal of %s does NOT match its integrity digest", name)
	}

	fmt.Printf("\033[32mJournal of %s verified: %d events match the digest.\033[0m\n", name, len(events))
	return nil
}

func newExportCommand() *cli.Command {
	var vault string

	return &cli.Command{
		Name:      "export",
		Usage:     "Export a vault's journal to a file",
		ArgsUsage: "<file_path>",
		Description: "The full journal is written as line-delimited JSON, one event \n" +
			"per line, in append order.\n\n" +
			"EXAMPLE:\n\ntimevault export --vault my.vault /path/to/file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "vault",
				Aliases:     []string{"v"},
				Category:    "REQUIRED:",
				Usage:       "Vault name",
				Destination: &vault,
				Required:    true,
			},
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return errors.New("must provide a file path")
			}
			filepath := cCtx.Args().First()

			vaultName, err := parseVaultName(vault)
			if err != nil {
				return err
			}

			store, err := openStore(cCtx)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			events, err := store.ListVaultEvents(cCtx.Context, app.ListVaultEventsParams{Vault: vaultName})
			if err != nil {
				return fmt.Errorf("failed to fetch events: %s", err)
			}

			f, err := os.Create(filepath)
			if err != nil {
				return fmt.Errorf("os create: %s", err)
			}
			defer func() {
				_ = f.Close()
			}()

			bar := progressbar.Default(int64(len(events)), "Exporting...")

			w := bufio.NewWriter(f)
			for _, event := range events {
				jsonData, err := json.Marshal(event)
				if err != nil {
					return fmt.Errorf("error serializing event to JSON")
				}
				if _, err := w.Write(append(jsonData, '\n')); err != nil {
					return fmt.Errorf("write: %s", err)
				}
				_ = bar.Add(1)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("flush: %s", err)
			}

			return nil
		},
	}
}

func newVerifyReceiptCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify-receipt",
		Usage:     "Verify a signed withdrawal receipt",
		ArgsUsage: "<file_path>",
		Description: "Recovers the address that signed a withdrawal receipt produced by \n" +
			"the withdraw command and checks it against the receipt's owner.\n\n" +
			"EXAMPLE:\n\ntimevault verify-receipt /path/to/receipt.json",
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return errors.New("must provide a file path")
			}

			data, err := os.ReadFile(cCtx.Args().First())
			if err != nil {
				return fmt.Errorf("read receipt: %s", err)
			}

			var receipt app.Receipt
			if err := json.Unmarshal(data, &receipt); err != nil {
				return fmt.Errorf("parse receipt: %s", err)
			}

			signer, err := receipt.SignerAddress()
			if err != nil {
				return fmt.Errorf("failed to recover signer: %s", err)
			}
			if signer != receipt.Owner {
				return fmt.Errorf("receipt signed by %s, but names %s as owner", signer, receipt.Owner)
			}

			fmt.Printf("\033[32mReceipt verified: %s withdrew %s from %s at %s.\033[0m\n",
				signer, receipt.Amount, receipt.Vault,
				time.Unix(receipt.Timestamp, 0).UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func newAccountCommand() *cli.Command {
	var pkString string

	return &cli.Command{
		Name:      "account",
		Usage:     "Account management for an Ethereum-style wallet",
		UsageText: "timevault account <subcommand> [arguments...]",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Creates a new account",
				UsageText: "timevault account create <file_path>",
				Description: "Create an Ethereum-style wallet (secp256k1 key pair) at a \n" +
					"provided file path.\n\n" +
					"EXAMPLE:\n\ntimevault account create /path/to/file",
				Action: func(cCtx *cli.Context) error {
					filename := cCtx.Args().Get(0)
					if filename == "" {
						return errors.New("filename is empty")
					}

					privateKey, err := crypto.GenerateKey()
					if err != nil {
						return fmt.Errorf("generate key: %s", err)
					}
					privateKeyBytes := crypto.FromECDSA(privateKey)

					if err := os.WriteFile(filename, []byte(hexutil.Encode(privateKeyBytes)[2:]), 0o644); err != nil {
						return fmt.Errorf("writing to file %s: %s", filename, err)
					}
					pubk, _ := privateKey.Public().(*ecdsa.PublicKey)
					publicKey := common.HexToAddress(crypto.PubkeyToAddress(*pubk).Hex())

					fmt.Printf("Wallet address %s created\n", publicKey)
					fmt.Printf("Private key saved in %s\n", filename)
					return nil
				},
			},
			{
				Name:      "address",
				Usage:     "Print the public key for an account's private key",
				UsageText: "timevault account address [command options] <value>",
				Description: "The result of the `timevault account create` command will write a private key to a file, and \n" +
					"this lets you retrieve the public key value for the file, or a private key hex string.\n" +
					"If no `--string` flag is provided, then the presumption is the argument is a filepath.\n\n" +
					"EXAMPLES:\n\ntimevault account address /path/to/file\ntimevault account address --string abcd1234",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "string",
						Category:    "OPTIONAL:",
						Usage:       "Specify if the argument is a hex string",
						Destination: &pkString,
					},
				},
				Action: func(cCtx *cli.Context) error {
					pkFile := cCtx.Args().Get(0)
					if pkFile == "" && pkString == "" {
						return errors.New("no argument provided")
					}

					var privateKey *ecdsa.PrivateKey
					var err error
					if pkString == "" {
						privateKey, err = signing.FileToECDSA(pkFile)
					} else {
						privateKey, err = signing.HexToECDSA(pkString)
					}
					if err != nil {
						return fmt.Errorf("loading key: %s", err)
					}

					pubk, _ := privateKey.Public().(*ecdsa.PublicKey)
					publicKey := common.HexToAddress(crypto.PubkeyToAddress(*pubk).Hex())

					fmt.Println(publicKey)
					return nil
				},
			},
			{
				Name:      "balance",
				Usage:     "Print the ledger balance credited to an account by withdrawals",
				UsageText: "timevault account balance <address>",
				Action: func(cCtx *cli.Context) error {
					address := cCtx.Args().Get(0)
					account, err := app.NewAccount(address)
					if err != nil {
						return fmt.Errorf("%s is not a valid Ethereum wallet address", address)
					}

					store, err := openStore(cCtx)
					if err != nil {
						return err
					}
					defer func() {
						_ = store.Close()
					}()

					balance, err := store.AccountBalance(cCtx.Context, account)
					if err != nil {
						return fmt.Errorf("failed to get balance: %s", err)
					}

					fmt.Println(balance)
					return nil
				},
			},
		},
	}
}

func openStore(cCtx *cli.Context) (app.VaultStore, error) {
	dir, err := defaultConfigLocation(cCtx.String("dir"))
	if err != nil {
		return nil, fmt.Errorf("default config location: %s", err)
	}

	cfg, err := loadConfig(path.Join(dir, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load config: %s", err)
	}

	switch cfg.Store {
	case "duckdb":
		dbPath := cfg.Path
		if dbPath == "" {
			dbPath = path.Join(dir, DefaultStoreFile)
		}
		return duckstore.New(dbPath)
	case "postgres":
		if cfg.DBURI == "" {
			return nil, errors.New("postgres store requires dburi in config")
		}
		return pgstore.New(cCtx.Context, cfg.DBURI)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store)
	}
}

func parseVaultName(name string) (app.VaultName, error) {
	if !vaultNameRx.MatchString(name) {
		return "", errors.New(
			"vault name must be of the form `namespace.vault_name` using only letters, numbers, " +
				"and underscores (_), where `namespace` and `vault_name` do not start with a number",
		)
	}
	return app.VaultName(name), nil
}

func parseAmount(amount string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return nil, fmt.Errorf("amount must be a base 10 integer: %s", amount)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("amount cannot be negative: %s", amount)
	}
	return value, nil
}

func accountFromKey(privateKey string) (*app.Account, *ecdsa.PrivateKey, error) {
	key, err := signing.HexToECDSA(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("loading key: %s", err)
	}

	pubk, _ := key.Public().(*ecdsa.PublicKey)
	return app.AccountFromAddress(crypto.PubkeyToAddress(*pubk)), key, nil
}

func validateBeforeAndAfter(before, after, at string) (app.Timestamp, app.Timestamp, error) {
	if at != "" {
		before, after = at, at
	}

	b, err := app.ParseTimestamp(before)
	if err != nil {
		return app.Timestamp{}, app.Timestamp{}, err
	}

	a, err := app.ParseTimestamp(after)
	if err != nil {
		return app.Timestamp{}, app.Timestamp{}, err
	}

	return b, a, nil
}
