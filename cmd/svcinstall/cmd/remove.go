package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	svcinstall "github.com/axondata/go-svcinstall"
)

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME...",
		Aliases: []string{"uninstall"},
		Short:   "Stop and delete service registrations",
		Args:    cobra.MinimumNArgs(1),
		RunE:    a.runRemove,
	}
}

func (a *app) runRemove(cmd *cobra.Command, names []string) error {
	backend, err := a.backend()
	if err != nil {
		return err
	}

	err = a.manager(backend).Remove(cmd.Context(), names...)

	failed := make(map[string]bool)
	var merr *svcinstall.MultiError
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			var opErr *svcinstall.OpError
			if errors.As(e, &opErr) {
				failed[opErr.Service] = true
			}
		}
	}
	for _, name := range names {
		if !failed[name] {
			_, _ = fmt.Fprintf(a.out, "Removed %s\n", name)
		}
	}
	return err
}
