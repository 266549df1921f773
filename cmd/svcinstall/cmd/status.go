package cmd

import (
	"errors"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	svcinstall "github.com/axondata/go-svcinstall"
)

// statusRow is one line of the status report
type statusRow struct {
	Service string `json:"service" yaml:"service"`
	Backend string `json:"backend" yaml:"backend"`
	State   string `json:"state" yaml:"state"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status NAME...",
		Short: "Show the state of services",
		Long:  `Query the backend for the state of each named service. A service without a record is reported as NotInstalled.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runStatus,
	}
}

func (a *app) runStatus(cmd *cobra.Command, names []string) error {
	backend, err := a.backend()
	if err != nil {
		return err
	}

	states, err := a.manager(backend).Status(cmd.Context(), names...)

	failures := make(map[string]error)
	var merr *svcinstall.MultiError
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			var opErr *svcinstall.OpError
			if errors.As(e, &opErr) {
				failures[opErr.Service] = e
			}
		}
	}

	rows := make([]statusRow, 0, len(names))
	for _, name := range names {
		row := statusRow{Service: name, Backend: backend.Name()}
		if state, ok := states[name]; ok {
			row.State = state.String()
		} else {
			row.State = svcinstall.StateUnknown.String()
			if ferr := failures[name]; ferr != nil {
				row.Error = ferr.Error()
			}
		}
		rows = append(rows, row)
	}

	if rerr := a.renderRows(rows); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

func (a *app) renderRows(rows []statusRow) error {
	format := a.cfg.OutputFormat()
	if format != svcinstall.FormatText {
		return encode(a.out, format, rows)
	}

	table := tablewriter.NewWriter(a.out)
	table.Header("Service", "Backend", "State", "Error")
	for _, row := range rows {
		if err := table.Append([]string{row.Service, row.Backend, row.State, row.Error}); err != nil {
			return err
		}
	}
	return table.Render()
}
