// Root binary: the MSISDN subscriber search, same behavior as cmd/subsearch.
package main

import (
	"fmt"
	"os"

	"mssauto/internal/cli"
)

func main() {
	var (
		found bool
		ran   bool
	)

	cmd := cli.NewSearchCommand(&found, &ran)
	cmd.SetArgs(os.Args[1:])

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if !ran {
			os.Exit(2)
		}
		os.Exit(1)
	}

	if ran && !found {
		os.Exit(1)
	}
}
