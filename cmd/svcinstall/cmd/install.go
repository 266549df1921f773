package cmd

import (
	"io"

	"github.com/spf13/cobra"

	svcinstall "github.com/axondata/go-svcinstall"
)

func (a *app) installCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Register, start and verify a service",
		Long: `Resolve the manager and interpreter, register the script as a service,
start it and print its status before and after the start request.

An existing service of the same name is left untouched unless --replace is given.`,
		Example: `  svcinstall install --name Worker1 --interpreter python3 --script /opt/app/run.py
  svcinstall install --name Worker1 --interpreter pwsh --script run.ps1 \
    --arg=-NoProfile --arg=-File --arg='{script}'`,
		Args: cobra.NoArgs,
		RunE: a.runInstall,
	}
	addInstallFlags(cmd.Flags())
	return cmd
}

func (a *app) runInstall(cmd *cobra.Command, _ []string) error {
	format := a.cfg.OutputFormat()

	in := svcinstall.NewInstaller(a.cfg.BackendConfig())
	in.Resolver = a.resolver()
	in.NewBackend = a.construct
	in.Policy = a.cfg.Policy()
	in.Poller = a.cfg.Poller()
	in.StartTimeout = a.cfg.StartTimeout
	in.Log = a.log
	in.Out = a.out
	if format != svcinstall.FormatText {
		in.Out = io.Discard
	}

	result, err := in.Install(cmd.Context(), a.cfg.InstallSpec())
	if format != svcinstall.FormatText {
		if rerr := result.Render(a.out, format); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}
