// lawmate is a terminal client for the drafting assistant.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

const version = "dev"

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var showVersion, verbose bool
	root := flag.NewFlagSet("lawmate", flag.ContinueOnError)
	root.SetOutput(stderr)
	root.BoolVar(&showVersion, "version", false, "print version and exit")
	root.BoolVar(&verbose, "v", false, "log debug output to stderr")
	if err := root.Parse(args); err != nil {
		return 2
	}

	if showVersion {
		fmt.Fprintf(stdout, "lawmate %s\n", version)
		return 0
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	rest := root.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return 2
	}

	switch rest[0] {
	case "draft":
		return runDraft(rest[1:], stdout, stderr, logger)
	case "ask":
		return runAsk(rest[1:], stdout, stderr, logger)
	case "guide":
		return runGuide(rest[1:], stdout, stderr, logger)
	case "show":
		return runShow(rest[1:], stdout, stderr, logger)
	case "reset":
		return runReset(rest[1:], stdout, stderr, logger)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", rest[0])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: lawmate [-v] <command> [flags] [text]")
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  draft   draft a complaint from case facts (-type general|money|eviction|payment_order|unified)")
	fmt.Fprintln(w, "  ask     ask a follow-up strategy question on the current conversation")
	fmt.Fprintln(w, "  guide   explain the statutes relevant to a situation")
	fmt.Fprintln(w, "  show    print the saved draft and strategy conversation")
	fmt.Fprintln(w, "  reset   end the strategy conversation, keeping the draft input")
	fmt.Fprintln(w, "text is read from stdin when omitted")
}
