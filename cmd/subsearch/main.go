package main

import (
	"fmt"
	"os"

	"mssauto/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		found bool
		ran   bool
	)

	cmd := cli.NewSearchCommand(&found, &ran)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if !ran {
			// Flag or argument problem.
			return 2
		}
		return 1
	}

	if !ran {
		// Help output only.
		return 0
	}
	if found {
		return 0
	}
	return 1
}
