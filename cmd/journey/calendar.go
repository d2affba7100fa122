package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/BekaPrado/novo-mobile-sub000/calendar"
	"github.com/BekaPrado/novo-mobile-sub000/remote"
)

func runCalendar(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := pflag.NewFlagSet("journey calendar", pflag.ContinueOnError)
	server := serverFlag(fs)
	userID := fs.Int64("user", 0, "show the events of this user")
	groupID := fs.Int64("group", 0, "show the events of this group")
	month := fs.String("month", "", "month to open, YYYY-MM (default: current month)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var scope calendar.Scope
	switch {
	case *userID > 0 && *groupID == 0:
		scope = calendar.Scope{Kind: calendar.ScopeUser, ID: *userID}
	case *groupID > 0 && *userID == 0:
		scope = calendar.Scope{Kind: calendar.ScopeGroup, ID: *groupID}
	default:
		return fmt.Errorf("exactly one of --user or --group is required")
	}

	var opts []calendar.Option
	opts = append(opts, calendar.WithLogger(logger))
	if *month != "" {
		start, err := time.Parse("2006-01", *month)
		if err != nil {
			return fmt.Errorf("--month: want YYYY-MM, got %q", *month)
		}
		opts = append(opts, calendar.WithClock(func() time.Time { return start }))
	}

	client := remote.NewClient(*server, remote.WithClientLogger(logger))
	agg := calendar.New(client, scope, opts...)
	if err := agg.Load(ctx); err != nil {
		// The grid still renders, empty.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if n := agg.Dropped(); n > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d events with unreadable dates were skipped\n", n)
	}

	printMonth(os.Stdout, agg)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "[n]ext [p]rev [r]eload [a]ll <day> [q]uit > ")
		if !scanner.Scan() || ctx.Err() != nil {
			return nil
		}
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "q", "quit":
			return nil
		case "n":
			agg.NextMonth()
		case "p":
			agg.PreviousMonth()
		case "a":
			printAll(os.Stdout, agg)
			continue
		case "r":
			if err := agg.Load(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		case "":
			continue
		default:
			day, err := strconv.Atoi(cmd)
			year, m := agg.Selected()
			if err != nil || day < 1 || day > calendar.DaysIn(year, m) {
				fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
				continue
			}
			agg.SelectDay(calendar.NewDate(year, m, day))
			printDay(os.Stdout, agg)
			continue
		}
		printMonth(os.Stdout, agg)
	}
}

func printMonth(w io.Writer, agg *calendar.Aggregator) {
	year, month := agg.Selected()
	fmt.Fprintf(w, "\n%s %d  (%d events)\n", month, year, agg.CountInMonth(year, month))
	fmt.Fprintln(w, " Su  Mo  Tu  We  Th  Fr  Sa")

	for i, cell := range agg.Grid() {
		switch {
		case cell.Empty:
			fmt.Fprint(w, "    ")
		case cell.Count > 0:
			fmt.Fprintf(w, " %2d*", cell.Date.Day)
		default:
			fmt.Fprintf(w, " %2d ", cell.Date.Day)
		}
		if i%7 == 6 {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)
}

// printAll lists every loaded event in fetch order, whatever month is selected.
func printAll(w io.Writer, agg *calendar.Aggregator) {
	events := agg.Events()
	if len(events) == 0 {
		fmt.Fprintln(w, "no events")
		return
	}
	for _, ev := range events {
		fmt.Fprintf(w, "%s %s\n", ev.Date, eventLine(ev))
	}
}

func printDay(w io.Writer, agg *calendar.Aggregator) {
	day, ok := agg.SelectedDay()
	if !ok {
		return
	}
	events := agg.SelectedEvents()
	if len(events) == 0 {
		fmt.Fprintf(w, "%s: no events\n", day)
		return
	}
	fmt.Fprintf(w, "%s:\n", day)
	for _, ev := range events {
		fmt.Fprintln(w, "  "+eventLine(ev))
	}
}

func eventLine(ev calendar.Event) string {
	line := ev.Name
	if ev.Time != "" {
		line = ev.Time + " " + ev.Name
	}
	if ev.Link != "" {
		line += " <" + ev.Link + ">"
	}
	return line
}
