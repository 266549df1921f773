package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	svcinstall "github.com/axondata/go-svcinstall"
)

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  `Print the configuration after merging defaults, the config file, SVCINSTALL_* environment variables and flags.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			format := a.cfg.OutputFormat()
			if format == svcinstall.FormatText {
				format = svcinstall.FormatYAML
			}
			// JSON has no comments
			if a.cfg.File != "" && format == svcinstall.FormatYAML {
				_, _ = fmt.Fprintf(a.out, "# %s\n", a.cfg.File)
			}
			return encode(a.out, format, a.cfg)
		},
	}
}

// encode writes v as JSON or YAML
func encode(w io.Writer, format svcinstall.OutputFormat, v any) error {
	if format == svcinstall.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
