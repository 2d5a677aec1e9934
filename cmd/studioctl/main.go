// Command studioctl is the terminal companion to the studio server.
package main

import (
	"fmt"
	"os"

	"chromastudio/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "studioctl:", err)
		os.Exit(1)
	}
}
