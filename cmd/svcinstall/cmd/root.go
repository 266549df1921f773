package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	svcinstall "github.com/axondata/go-svcinstall"
	"github.com/axondata/go-svcinstall/internal/config"
	"github.com/axondata/go-svcinstall/internal/logging"
)

// app carries the state shared by all subcommands of one invocation
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	log     *logrus.Logger

	out    io.Writer
	errOut io.Writer

	// newBackend overrides backend construction in tests
	newBackend func(svcinstall.BackendConfig) (svcinstall.Backend, error)
}

// flagKeys maps command-line flags onto configuration keys
var flagKeys = map[string]string{
	"log-level":       config.KeyLogLevel,
	"log-format":      config.KeyLogFormat,
	"backend":         config.KeyBackend,
	"manager":         config.KeyManager,
	"search-path":     config.KeySearchPath,
	"sudo":            config.KeyUseSudo,
	"dry-run":         config.KeyDryRun,
	"output":          config.KeyOutput,
	"unit-dir":        config.KeyUnitDir,
	"service-dir":     config.KeyServiceDir,
	"quote-style":     config.KeyQuoteStyle,
	"start-timeout":   config.KeyStartTimeout,
	"settle-attempts": config.KeySettleAttempts,
	"settle-timeout":  config.KeySettleTimeout,
	"name":            config.KeyName,
	"interpreter":     config.KeyInterpreter,
	"script":          config.KeyScript,
	"arg":             config.KeyArgs,
	"replace":         config.KeyReplace,
}

// NewRootCmd builds the svcinstall command tree writing reports to out
// and diagnostics to errOut
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "svcinstall",
		Short: "Install a script as a background service",
		Long: `svcinstall registers an interpreter-run script as a persistent background
service, starts it and reports the state the host settles in.

Run without a subcommand it performs the install routine from configuration.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runInstall,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./svcinstall.yaml or $HOME/.svcinstall/config.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("backend", "", "service backend: wrapper, systemd, runit, scm, memory (default per host)")
	pf.String("manager", "", "service manager command for the wrapper and systemd backends")
	pf.String("search-path", "", "executable search path (default $PATH)")
	pf.Bool("sudo", false, "run manager commands through sudo")
	pf.Bool("dry-run", false, "use the in-memory backend instead of the host")
	pf.StringP("output", "o", "", "output format: text, json or yaml")
	pf.String("unit-dir", "", "systemd unit directory")
	pf.String("service-dir", "", "runit scan directory")
	pf.String("quote-style", "", "argument quoting for the wrapper: windows, posix or systemd")
	pf.Duration("start-timeout", 0, "bound on the start request and state query")
	pf.Int("settle-attempts", 0, "state queries after a start request")
	pf.Duration("settle-timeout", 0, "bound on settle polling")

	addInstallFlags(root.Flags())

	root.AddCommand(
		a.installCmd(),
		a.statusCmd(),
		a.startCmd(),
		a.removeCmd(),
		a.configCmd(),
		a.versionCmd(),
	)
	return root
}

func addInstallFlags(fs *pflag.FlagSet) {
	fs.String("name", "", "service name")
	fs.String("interpreter", "", "interpreter that runs the script")
	fs.String("script", "", "script to run as a service")
	fs.StringArray("arg", nil, `argument template entry, repeatable; "{script}" expands to the script path`)
	fs.Bool("replace", false, "replace an existing service of the same name")
}

// setup binds flags, loads configuration and builds the logger
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(a.errOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("%w: %w", svcinstall.ErrInvalidArgument, err)
	}
	a.log = log
	if cfg.File != "" {
		log.WithField("file", cfg.File).Debug("loaded configuration")
	}
	return nil
}

func (a *app) resolver() *svcinstall.Resolver {
	return svcinstall.NewResolver(a.cfg.SearchPath)
}

func (a *app) construct(bc svcinstall.BackendConfig) (svcinstall.Backend, error) {
	if a.newBackend != nil {
		return a.newBackend(bc)
	}
	return svcinstall.NewBackend(bc)
}

// backend resolves the manager when needed and constructs the backend
func (a *app) backend() (svcinstall.Backend, error) {
	bc := a.cfg.BackendConfig()
	if bc.Type.NeedsManager() {
		manager := a.cfg.Manager
		if manager == "" {
			manager = svcinstall.DefaultManagerCommand(bc.Type)
		}
		path, err := a.resolver().Resolve(manager)
		if err != nil {
			return nil, err
		}
		bc.ManagerPath = path
	}
	return a.construct(bc)
}

func (a *app) verifier(backend svcinstall.Backend) *svcinstall.Verifier {
	v := svcinstall.NewVerifier(backend)
	v.Poller = a.cfg.Poller()
	v.StartTimeout = a.cfg.StartTimeout
	v.Log = a.log
	return v
}

func (a *app) manager(backend svcinstall.Backend) *svcinstall.Manager {
	return svcinstall.NewManager(backend,
		svcinstall.WithVerifier(a.verifier(backend)),
		svcinstall.WithTimeout(a.cfg.StartTimeout+a.cfg.CommandTimeout),
	)
}

// Execute runs the command line, cancelling on SIGINT or SIGTERM
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// PrintError writes err with its kind and an operator hint
func PrintError(w io.Writer, err error) {
	kind := svcinstall.KindOf(err)
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	if kind == svcinstall.KindUnknown || kind == svcinstall.KindNone {
		return
	}
	_, _ = fmt.Fprintf(w, "  kind: %s\n", kind)
	if hint := kind.Hint(); hint != "" {
		_, _ = fmt.Fprintf(w, "  hint: %s\n", hint)
	}
}
