package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start NAME...",
		Short: "Start registered services and report their state",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runStart,
	}
}

func (a *app) runStart(cmd *cobra.Command, names []string) error {
	backend, err := a.backend()
	if err != nil {
		return err
	}

	states, err := a.manager(backend).Start(cmd.Context(), names...)
	for _, name := range names {
		if state, ok := states[name]; ok {
			_, _ = fmt.Fprintf(a.out, "%s: %s\n", name, state)
		}
	}
	return err
}
