package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
	"github.com/BekaPrado/novo-mobile-sub000/feed"
	"github.com/BekaPrado/novo-mobile-sub000/remote"
)

func runChat(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := pflag.NewFlagSet("journey chat", pflag.ContinueOnError)
	server := serverFlag(fs)
	userID := fs.Int64("user", 0, "your user ID (required)")
	name := fs.String("name", "", "display name shown to other members")
	avatar := fs.String("avatar", "", "avatar URL shown to other members")
	roomID := fs.Int64("room", 0, "room ID to follow (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID <= 0 || *roomID <= 0 {
		return fmt.Errorf("--user and --room are required")
	}

	wsURL, err := remote.SocketURL(*server, *userID, *name, *avatar)
	if err != nil {
		return err
	}
	socket := remote.NewSocket(wsURL, remote.WithSocketLogger(logger))
	if err := socket.Connect(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", *server, err)
	}
	defer socket.Disconnect()

	client := remote.NewClient(*server, remote.WithClientLogger(logger))
	f := feed.New(client, socket, *userID, feed.WithLogger(logger))

	var historyErr *feed.HistoryFetchError
	if err := f.Open(ctx, *roomID); err != nil {
		if !errors.As(err, &historyErr) {
			return err
		}
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	defer f.Close()

	fmt.Fprintf(os.Stderr, "Following room %d. Type a message and press Enter; /quit leaves.\n", *roomID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go printFeed(ctx, cancel, f, *userID, os.Stdout)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "/quit" {
				return nil
			}
			if err := f.Send(ctx, line); err != nil {
				if errors.Is(err, feed.ErrBlankMessage) {
					continue
				}
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			}
		}
	}
}

// printFeed writes new feed messages as they arrive and cancels once the
// feed drops back to Disconnected.
func printFeed(ctx context.Context, cancel context.CancelFunc, f *feed.Feed, self int64, w io.Writer) {
	printed := 0
	for {
		msgs := f.Messages()
		for _, msg := range unprinted(msgs, printed) {
			fmt.Fprintln(w, formatMessage(msg, self))
		}
		printed = len(msgs)

		if f.State() == feed.Disconnected {
			fmt.Fprintln(os.Stderr, "connection closed")
			cancel()
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-f.Changed():
		}
	}
}

// unprinted returns the messages after the first printed ones. A feed that
// shrank was cleared by Close, so all of it is new.
func unprinted(msgs []conversation.Message, printed int) []conversation.Message {
	if printed > len(msgs) {
		return msgs
	}
	return msgs[printed:]
}

func formatMessage(msg conversation.Message, self int64) string {
	who := msg.SenderName
	if who == "" {
		who = fmt.Sprintf("user %d", msg.SenderID)
	}
	if msg.SenderID == self {
		who = "you"
	}
	if msg.SentAt != "" {
		return fmt.Sprintf("[%s] %s: %s", msg.SentAt, who, msg.Content)
	}
	return fmt.Sprintf("%s: %s", who, msg.Content)
}
