// Command svcinstall registers a script as a background service, starts it
// and reports its state.
package main

import (
	"os"

	svcinstall "github.com/axondata/go-svcinstall"
	"github.com/axondata/go-svcinstall/cmd/svcinstall/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.PrintError(os.Stderr, err)
		os.Exit(svcinstall.ExitCode(err))
	}
}
