// sunuwallet is a non-custodial Bitcoin wallet for the command line.
//
// Usage:
//
//	sunuwallet create                     Create a wallet
//	sunuwallet send <addr> <sats>         Send satoshis
//	sunuwallet --help                     Show all commands
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/sunusav/sunusav-wallet/config"
	"github.com/sunusav/sunusav-wallet/internal/explorer"
	"github.com/sunusav/sunusav-wallet/internal/keystore"
	"github.com/sunusav/sunusav-wallet/internal/log"
	"github.com/sunusav/sunusav-wallet/internal/storage"
	"github.com/sunusav/sunusav-wallet/internal/wallet"
)

const version = "0.1.0"

func main() {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}
	if flags.Help {
		config.Usage()
		return
	}
	if flags.Version {
		fmt.Printf("sunuwallet v%s\n", version)
		return
	}
	if len(flags.Args) == 0 {
		config.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fatal("%v", err)
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	app, err := newApp(cfg)
	if err != nil {
		fatal("%v", err)
	}
	defer app.close()

	cmd, args := flags.Args[0], flags.Args[1:]
	switch cmd {
	case "create":
		app.cmdCreate()
	case "restore":
		app.cmdRestore(args)
	case "unlock":
		app.cmdUnlock()
	case "address":
		app.cmdAddress()
	case "balance":
		app.cmdBalance()
	case "send":
		app.cmdSend(args)
	case "history":
		app.cmdHistory()
	case "fees":
		app.cmdFees()
	case "change-password":
		app.cmdChangePassword()
	case "remove":
		app.cmdRemove()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		config.Usage()
		os.Exit(1)
	}
}

// loadConfig layers defaults, then the config file, then flags.
func loadConfig(flags *config.Flags) (*config.Config, error) {
	network := config.Mainnet
	if flags.Network != "" {
		network = config.NetworkType(flags.Network)
	}
	cfg := config.Default(network)

	if flags.Config != "" {
		values, err := config.LoadFile(flags.Config)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", flags.Config, err)
		}
		if err := config.ApplyFileConfig(cfg, values); err != nil {
			return nil, fmt.Errorf("config %s: %w", flags.Config, err)
		}
	}
	if err := flags.Apply(cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app wires storage, keystore, chain client and wallet service.
type app struct {
	cfg   *config.Config
	db    storage.DB
	ks    *keystore.Keystore
	chain explorer.Service
	svc   *wallet.Service
}

func newApp(cfg *config.Config) (*app, error) {
	db, err := storage.NewBadger(cfg.WalletDBDir())
	if err != nil {
		return nil, fmt.Errorf("open wallet store: %w", err)
	}

	var chain explorer.Service
	if cfg.Explorer.UseMock {
		chain = explorer.NewMock()
	} else {
		chain = explorer.NewEsplora(cfg.Explorer.URL, cfg.Explorer.Timeout)
	}

	params := cfg.Network.ChainParams()
	return &app{
		cfg:   cfg,
		db:    db,
		ks:    keystore.New(db, params),
		chain: chain,
		svc:   wallet.New(chain, params, cfg.Fees.DefaultRate, cfg.Fees.Target),
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		log.Storage.Error().Err(err).Msg("close wallet store")
	}
}

func (a *app) cmdCreate() {
	if has, err := a.ks.HasStoredWallet(); err != nil {
		fatal("%v", err)
	} else if has {
		fatal("a wallet already exists; run 'remove' first to replace it")
	}

	password := readNewPassword()
	created, err := a.ks.CreateAndStoreWallet(password)
	if err != nil {
		fatal("create wallet: %v", err)
	}

	fmt.Println("Recovery phrase (write this down, it is shown only once):")
	fmt.Printf("\n  %s\n\n", created.Mnemonic)
	fmt.Printf("Address: %s\n", created.Address)
}

func (a *app) cmdRestore(args []string) {
	if len(args) == 0 {
		fatal("Usage: sunuwallet restore <12-word mnemonic>")
	}
	mnemonic := strings.ToLower(strings.Join(args, " "))

	password := readNewPassword()
	key, err := a.ks.RestoreAndStoreWallet(mnemonic, password)
	if err != nil {
		fatal("restore wallet: %v", err)
	}
	defer key.Zero()

	fmt.Printf("Restored. Address: %s\n", key.Address)
}

func (a *app) cmdUnlock() {
	unlocked := a.unlock()
	defer unlocked.Zero()
	fmt.Printf("Unlocked. Address: %s\n", unlocked.Key.Address)
}

func (a *app) cmdAddress() {
	fmt.Println(a.storedAddress())
}

func (a *app) cmdBalance() {
	info, err := a.svc.Balance(context.Background(), a.storedAddress())
	if err != nil {
		fatal("fetch balance: %v", err)
	}
	fmt.Printf("Confirmed:   %s\n", wallet.FormatAmount(info.Confirmed))
	fmt.Printf("Unconfirmed: %s\n", wallet.FormatAmount(info.Unconfirmed))
	fmt.Printf("Total:       %s\n", wallet.FormatAmount(info.Total))
}

func (a *app) cmdSend(args []string) {
	if len(args) != 2 {
		fatal("Usage: sunuwallet send <address> <satoshis>")
	}
	toAddress := args[0]
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		fatal("invalid amount %q: want positive satoshis", args[1])
	}

	unlocked := a.unlock()
	defer unlocked.Zero()

	// Fee rate 0 lets the service resolve it from the fee oracle.
	result, err := a.svc.SendBitcoin(context.Background(), unlocked.Key, toAddress, amount, 0)
	if err != nil {
		var bcErr *wallet.BroadcastError
		if errors.As(err, &bcErr) {
			fmt.Fprintf(os.Stderr, "Broadcast failed: %v\n", bcErr.Err)
			fmt.Fprintf(os.Stderr, "Signed transaction (retry with any relay):\n%s\n", bcErr.RawHex)
			os.Exit(1)
		}
		fatal("send: %v", err)
	}

	fmt.Printf("Sent %s to %s\n", wallet.FormatAmount(amount), toAddress)
	fmt.Printf("TxID: %s\n", result.TxID)
	fmt.Printf("Fee:  %s\n", wallet.FormatAmount(result.FeeSatoshis))
}

func (a *app) cmdHistory() {
	txs, err := a.svc.TransactionHistory(context.Background(), a.storedAddress())
	if err != nil {
		fatal("fetch history: %v", err)
	}
	if len(txs) == 0 {
		fmt.Println("No transactions.")
		return
	}
	for _, tx := range txs {
		status := "unconfirmed"
		if tx.Confirmed {
			status = fmt.Sprintf("block %d (%s)", tx.BlockHeight,
				time.Unix(tx.BlockTime, 0).Format("2006-01-02 15:04"))
		}
		fmt.Printf("%s  fee %6d sats  %s\n", tx.TxID, tx.Fee, status)
	}
}

func (a *app) cmdFees() {
	ctx := context.Background()
	targets := []struct {
		blocks int
		label  string
	}{
		{1, "next block"},
		{6, "~1 hour"},
		{144, "~1 day"},
	}

	for _, tgt := range targets {
		est, err := a.svc.EstimateFeeForTarget(ctx, tgt.blocks, 1, 2)
		if err != nil {
			fatal("estimate fees: %v", err)
		}
		note := ""
		if est.Degraded {
			note = "  (oracle unreachable, fallback rate)"
		}
		fmt.Printf("%-10s %3d sat/vB  (typical tx: %s)%s\n",
			tgt.label, est.RatePerVByte, wallet.FormatAmount(est.Satoshis), note)
	}
}

func (a *app) cmdChangePassword() {
	oldPassword, err := readPassword("Current password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	newPassword := readNewPassword()

	if err := a.ks.ChangePassword(string(oldPassword), newPassword); err != nil {
		fatal("change password: %v", err)
	}
	fmt.Println("Password changed.")
}

func (a *app) cmdRemove() {
	address := a.storedAddress()
	fmt.Printf("This deletes the encrypted wallet for %s.\n", address)
	fmt.Print("Without the recovery phrase the funds are unrecoverable. Type 'yes' to confirm: ")

	var answer string
	fmt.Scanln(&answer)
	if answer != "yes" {
		fmt.Println("Aborted.")
		return
	}

	if err := a.ks.RemoveStoredWallet(); err != nil {
		fatal("remove wallet: %v", err)
	}
	fmt.Println("Wallet removed.")
}

// unlock prompts for the password and decrypts the stored wallet.
func (a *app) unlock() *keystore.UnlockedWallet {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	unlocked, err := a.ks.UnlockWallet(string(password))
	if err != nil {
		fatal("unlock wallet: %v", err)
	}
	return unlocked
}

// storedAddress returns the stored wallet's address without unlocking.
func (a *app) storedAddress() string {
	w, err := a.ks.StoredWallet()
	if err != nil {
		fatal("%v", err)
	}
	if w == nil {
		fatal("no wallet found; run 'create' or 'restore' first")
	}
	return w.Address
}

// readNewPassword prompts twice and requires the entries to match.
func readNewPassword() string {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if len(password) == 0 {
		fatal("password must not be empty")
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}
	return string(password)
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
