// Command condevent validates, runs and tests conditional event rulesets.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/condevent/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
