// Command clipwardenverify checks the integrity of a clipwarden
// decision log without a running daemon, for audits and automated
// pipelines.
//
// Usage:
//
//	clipwardenverify [flags] <decisions.jsonl>
//
// Examples:
//
//	# Human-readable result
//	clipwardenverify decisions.jsonl
//
//	# JSON for scripting
//	clipwardenverify -format json decisions.jsonl
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"clipwarden/internal/decision"
)

// set at build time
var (
	version = "dev"
	commit  = "unknown"
)

type report struct {
	File    string `json:"file"`
	Valid   bool   `json:"valid"`
	Entries int    `json:"entries"`
	Error   string `json:"error,omitempty"`
	BadLine int    `json:"bad_entry,omitempty"`
}

func main() {
	formatStr := flag.String("format", "text", "output format: text, json")
	quiet := flag.Bool("quiet", false, "no output, result in the exit code only")
	versionFlag := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "clipwardenverify - verify a clipwarden decision log\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <decisions.jsonl>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExit codes:\n")
		fmt.Fprintf(os.Stderr, "  0  log verifies\n")
		fmt.Fprintf(os.Stderr, "  1  log is broken or tampered\n")
		fmt.Fprintf(os.Stderr, "  2  usage error\n")
	}
	flag.Parse()

	if *versionFlag {
		fmt.Printf("clipwardenverify %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: decision log required\n\n")
		flag.Usage()
		os.Exit(2)
	}
	if *formatStr != "text" && *formatStr != "json" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", *formatStr)
		os.Exit(2)
	}

	path := flag.Arg(0)
	rep := report{File: path, Valid: true}

	entries, err := decision.VerifyChainFile(path)
	rep.Entries = entries
	if err != nil {
		rep.Valid = false
		rep.Error = err.Error()
		var brk *decision.ChainBreakError
		if errors.As(err, &brk) {
			rep.BadLine = brk.Entry
		}
	}

	if !*quiet {
		if *formatStr == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.Encode(rep)
		} else {
			printText(rep)
		}
	}
	if !rep.Valid {
		os.Exit(1)
	}
}

func printText(rep report) {
	if rep.Valid {
		fmt.Printf("OK: %s\n", rep.File)
		fmt.Printf("  %d entries, hash chain intact\n", rep.Entries)
		return
	}
	fmt.Printf("FAILED: %s\n", rep.File)
	fmt.Printf("  %s\n", rep.Error)
	if rep.BadLine > 0 {
		fmt.Printf("  first bad entry: %d\n", rep.BadLine)
	}
	if rep.Entries > 0 {
		fmt.Printf("  %d entries verified before the break\n", rep.Entries)
	}
}
