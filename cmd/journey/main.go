// journey is the terminal client of the journey server. It follows a chat
// room live or browses a month of a user's or group's calendar.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("missing command")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	switch args[0] {
	case "chat":
		return runChat(ctx, logger, args[1:])
	case "calendar":
		return runCalendar(ctx, logger, args[1:])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: journey <command> [flags]

Commands:
  chat       follow a room: history, then live messages; type a line to send
  calendar   show a month grid; n/p to move, a day number to list its events

Run "journey <command> --help" for the flags of a command.
`)
}

// serverFlag registers the --server flag shared by every command.
func serverFlag(fs *pflag.FlagSet) *string {
	return fs.String("server", envOr("JOURNEY_SERVER", "http://localhost:3000"), "base URL of the journey server")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
