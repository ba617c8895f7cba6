package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/xmrkeys/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	for len(args) > 0 && (args[0] == "-v" || args[0] == "--verbose") {
		cmd.SetVerbose(true)
		args = args[1:]
	}

	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "decrypt":
		runDecrypt(ctx, args[1:])
	case "recover":
		runRecover(ctx, args[1:])
	case "info":
		runInfo(ctx, args[1:])
	case "keyring":
		runKeyring(ctx, args[1:])
	case "sessions":
		runSessions(ctx, args[1:])
	case "completion":
		runCompletion(ctx, args[1:])
	case "help", "-h", "--help":
		if len(args) < 2 {
			printUsage()
			return
		}
		printCommandHelp(args[1])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	stop()
	cmd.Exit(0)
}

func runDecrypt(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	output := fs.String("o", "", "Write plaintext to file instead of stdout")
	force := fs.Bool("force", false, "Overwrite an existing output file")
	hexOut := fs.Bool("hex", false, "Hex-encode the plaintext")
	noKeyring := fs.Bool("no-keyring", false, "Do not read or save the password in the OS keyring")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: xmrkeys decrypt [-o FILE] [--force] [--hex] [--no-keyring] <wallet.keys>")
		os.Exit(1)
	}

	cmd.Decrypt(ctx, fs.Arg(0), cmd.DecryptOptions{
		Output:     *output,
		Force:      *force,
		Hex:        *hexOut,
		UseKeyring: !*noKeyring,
	})
}

func runRecover(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("recover", flag.ExitOnError)
	workers := fs.Int("w", 0, "Number of concurrent attempts (default: number of CPUs)")
	restart := fs.Bool("restart", false, "Ignore saved progress and start from the first candidate")
	saveKeyring := fs.Bool("save-keyring", false, "Save the found password to the OS keyring")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: xmrkeys recover [-w WORKERS] [--restart] [--save-keyring] <wallet.keys> <candidates.txt>")
		os.Exit(1)
	}
	if *workers < 0 {
		fmt.Fprintln(os.Stderr, "Error: -w must not be negative")
		os.Exit(1)
	}

	cmd.Recover(ctx, fs.Arg(0), fs.Arg(1), cmd.RecoverOptions{
		Workers:     *workers,
		Restart:     *restart,
		SaveKeyring: *saveKeyring,
	})
}

func runInfo(_ context.Context, args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: xmrkeys info <wallet.keys>")
		os.Exit(1)
	}
	cmd.Info(fs.Arg(0))
}

func runKeyring(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: xmrkeys keyring <save|delete|status> <wallet.keys>")
		os.Exit(1)
	}

	switch args[0] {
	case "save":
		cmd.KeyringSave(ctx, args[1])
	case "delete":
		cmd.KeyringDelete(args[1])
	case "status":
		cmd.KeyringStatus(args[1])
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Usage: xmrkeys keyring <save|delete|status> <wallet.keys>")
		os.Exit(1)
	}
}

func runSessions(_ context.Context, args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(os.Stderr, "Usage: xmrkeys sessions <list|clear|compact> [wallet.keys]")
		os.Exit(1)
	}

	wallet := ""
	if len(args) == 2 {
		if args[0] != "clear" {
			fmt.Fprintf(os.Stderr, "Error: 'sessions %s' takes no wallet argument\n", args[0])
			os.Exit(1)
		}
		wallet = args[1]
	}
	cmd.Sessions(args[0], wallet)
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: xmrkeys completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("xmrkeys - Decrypt Monero wallet keys files")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  xmrkeys [-v|--verbose] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  decrypt     Decrypt a wallet keys file")
	fmt.Println("  recover     Search a candidate list for the wallet password")
	fmt.Println("  info        Show the wallet keys file header")
	fmt.Println("  keyring     Manage the wallet password in the OS keyring")
	fmt.Println("  sessions    Manage saved recovery sessions")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  xmrkeys info wallet.keys                    # Show header, no password needed")
	fmt.Println("  xmrkeys decrypt -o keys.bin wallet.keys     # Decrypt to a file")
	fmt.Println("  xmrkeys recover wallet.keys guesses.txt     # Try passwords from a list")
	fmt.Println()
	fmt.Println("Use 'xmrkeys help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "decrypt":
		fmt.Println("xmrkeys decrypt [-o FILE] [--force] [--hex] [--no-keyring] <wallet.keys>")
		fmt.Println()
		fmt.Println("Decrypts a wallet keys file and writes the plaintext to stdout or FILE.")
		fmt.Println("The password is taken from XMRKEYS_PASSWORD, the OS keyring, or a prompt,")
		fmt.Println("in that order. The file header is checked before any password is asked for.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -o FILE        Write plaintext to FILE (mode 0600)")
		fmt.Println("  --force        Overwrite FILE if it exists")
		fmt.Println("  --hex          Hex-encode the plaintext")
		fmt.Println("  --no-keyring   Do not read or save the password in the OS keyring")
		fmt.Println()
		fmt.Println("Environment:")
		fmt.Println("  XMRKEYS_PASSWORD     Wallet password")
		fmt.Println("  XMRKEYS_MAX_MEMORY   Largest Argon2 memory cost accepted, in MiB")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  xmrkeys decrypt wallet.keys | xxd")
		fmt.Println("  xmrkeys decrypt --hex -o keys.hex wallet.keys")
	case "recover":
		fmt.Println("xmrkeys recover [-w WORKERS] [--restart] [--save-keyring] <wallet.keys> <candidates.txt>")
		fmt.Println()
		fmt.Println("Tries each line of candidates.txt as the wallet password.")
		fmt.Println("Empty lines are tried as the empty password.")
		fmt.Println("Progress is saved, so an interrupted search resumes where it stopped.")
		fmt.Println("The matching line number is printed; the password itself never is.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -w WORKERS       Concurrent attempts (default: number of CPUs)")
		fmt.Println("  --restart        Ignore saved progress")
		fmt.Println("  --save-keyring   Save the found password to the OS keyring")
		fmt.Println()
		fmt.Println("Environment:")
		fmt.Println("  XMRKEYS_STATE   Session database path")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  xmrkeys recover -w 4 wallet.keys guesses.txt")
	case "info":
		fmt.Println("xmrkeys info <wallet.keys>")
		fmt.Println()
		fmt.Println("Shows the format version, key derivation, cipher and sizes of a wallet")
		fmt.Println("keys file, and whether its password is stored in the OS keyring.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "keyring":
		fmt.Println("xmrkeys keyring <save|delete|status> <wallet.keys>")
		fmt.Println()
		fmt.Println("Manages the wallet password in the OS keyring.")
		fmt.Println("Entries are keyed by the SHA-256 fingerprint of the wallet file.")
		fmt.Println()
		fmt.Println("Subcommands:")
		fmt.Println("  save     Prompt for the password, verify it, and save it")
		fmt.Println("  delete   Remove the saved password")
		fmt.Println("  status   Show whether a password is saved")
	case "sessions":
		fmt.Println("xmrkeys sessions <list|clear|compact> [wallet.keys]")
		fmt.Println()
		fmt.Println("Manages saved recovery sessions.")
		fmt.Println()
		fmt.Println("Subcommands:")
		fmt.Println("  list      Show sessions and their progress")
		fmt.Println("  clear     Remove the session for wallet.keys, or all sessions")
		fmt.Println("  compact   Compact the session database to reclaim disk space")
	case "completion":
		fmt.Println("xmrkeys completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(xmrkeys completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(xmrkeys completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  xmrkeys completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
