package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	svcinstall "github.com/axondata/go-svcinstall"
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			info := svcinstall.GetVersion()
			if format := a.cfg.OutputFormat(); format != svcinstall.FormatText {
				return encode(a.out, format, info)
			}
			_, err := fmt.Fprintf(a.out, "svcinstall %s (%s)\nbackends: %s\n",
				info.Version, info.Platform, strings.Join(info.Backends, ", "))
			return err
		},
	}
}
