package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/esfa/deskctl/internal/build"
	"github.com/esfa/deskctl/internal/cmd"
	"github.com/esfa/deskctl/internal/cmd/common"
	"github.com/esfa/deskctl/internal/cmd/root/verbs/clean"
	"github.com/esfa/deskctl/internal/cmd/root/verbs/count"
	"github.com/esfa/deskctl/internal/cmd/root/verbs/unshare"
	"github.com/esfa/deskctl/internal/cmd/root/version"
	"github.com/esfa/deskctl/internal/config"
	"github.com/esfa/deskctl/internal/iostreams"
	"github.com/esfa/deskctl/internal/log"
	"github.com/esfa/deskctl/internal/meta"
	"github.com/esfa/deskctl/internal/util/normalizers"
	"github.com/segmentio/cli"
	"github.com/spf13/cobra"
)

var (
	rootLong = normalizers.LongDesc(`
  deskctl removes test organizations and users from a helpdesk and repairs
  user records in bulk.

  Settings are read from appsettings.json and appsettings.<env>.json in the
  config directory, then from DESKCTL_ prefixed environment variables, then
  from flags.`)

	rootShort = fmt.Sprintf("%s cleans up helpdesk records in bulk", meta.CLIName)
)

// Option customizes a root command built by NewRootCmd
type Option func(*options)

// WithHelpdeskFactory replaces the REST client every command would build
func WithHelpdeskFactory(f cmd.HelpdeskFactory) Option {
	return func(o *options) { o.factory = f }
}

// WithArgs sets the command line instead of os.Args
func WithArgs(args ...string) Option {
	return func(o *options) { o.args = args }
}

type options struct {
	streams   *iostreams.IOStreams
	buildInfo *build.Info
	factory   cmd.HelpdeskFactory
	args      []string

	configDir    string
	environment  string
	section      string
	outputFormat *cmd.FlagEnum
	logLevel     *cmd.FlagEnum

	// format is the output format after settings are applied
	format string
	closer io.Closer
}

func newOptions(s *iostreams.IOStreams, bi *build.Info, opts ...Option) *options {
	o := &options{
		streams:      s,
		buildInfo:    bi,
		factory:      cmd.DefaultHelpdeskFactory,
		environment:  config.DefaultEnvironment,
		section:      config.DefaultSection,
		outputFormat: cmd.NewEnum([]string{"json", "yaml", "text"}, common.DefaultOutputFormat),
		logLevel:     cmd.NewEnum([]string{"trace", "debug", "info", "warn", "error"}, common.DefaultLogLevel),
	}
	// The environment picks which files are read, so it cannot come from
	// them. Look for it before flags are parsed: ENV_VAR < CLI_FLAG.
	if env, found := os.LookupEnv(meta.EnvPrefix + "_ENV"); found {
		o.environment = env
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewRootCmd builds the command tree
func NewRootCmd(s *iostreams.IOStreams, bi *build.Info, opts ...Option) *cobra.Command {
	return newRootCmd(newOptions(s, bi, opts...))
}

func newRootCmd(o *options) *cobra.Command {
	cobra.EnableTraverseRunHooks = true

	rootCmd := &cobra.Command{
		Use:                meta.CLIName,
		Short:              rootShort,
		Long:               rootLong,
		PersistentPreRunE:  o.preRun,
		PersistentPostRunE: o.postRun,
	}
	rootCmd.SetIn(o.streams.In)
	rootCmd.SetOut(o.streams.Out)
	rootCmd.SetErr(o.streams.ErrOut)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.configDir, common.ConfigDirFlagName, "",
		"Directory holding appsettings.json (default is the working directory).")
	pf.StringVar(&o.environment, common.EnvironmentFlagName, o.environment,
		fmt.Sprintf("Environment overlay to read, appsettings.<env>.json. Also read from %s_ENV.", meta.EnvPrefix))
	pf.StringVar(&o.section, common.SectionFlagName, o.section,
		"Top level section of the settings files to read.")

	pf.VarP(o.outputFormat, common.OutputFlagName, common.OutputFlagShort,
		fmt.Sprintf(`Configures the output format.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			config.OutputConfigPath, strings.Join(o.outputFormat.Allowed, "|")))
	pf.Var(o.logLevel, common.LogLevelFlagName,
		fmt.Sprintf(`Minimum level written to the log file.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			config.LogLevelConfigPath, strings.Join(o.logLevel.Allowed, "|")))
	pf.String(common.LogFileFlagName, "",
		fmt.Sprintf(`Write a log to this file. Errors are always shown on stderr.
- Config path: [ %s ]`, config.LogFileConfigPath))

	pf.String(common.BaseURLFlagName, "",
		fmt.Sprintf(`Base URL of the helpdesk.
- Config path: [ %s ]
- Default    : [ %s ]`, config.BaseURLConfigPath, config.DefaultBaseURL))
	pf.String(common.FilterFlagName, "",
		fmt.Sprintf(`Search filter selecting the records to work on.
- Config path: [ %s ]
- Default    : [ %s ]`, config.FilterConfigPath, config.DefaultFilter))
	pf.Int(common.PerPageFlagName, 0,
		fmt.Sprintf(`Records per search page.
- Config path: [ %s ]
- Default    : [ %d ]`, config.PerPageConfigPath, config.DefaultPerPage))
	pf.Int(common.FanOutFlagName, 0,
		fmt.Sprintf(`Search pages fetched at the same time.
- Config path: [ %s ]
- Default    : [ %d ]`, config.FanOutConfigPath, config.DefaultFanOut))

	rootCmd.AddCommand(
		clean.NewCleanCmd(),
		count.NewCountCmd(),
		unshare.NewUnShareCmd(),
		version.NewVersionCmd(),
	)
	return rootCmd
}

// boundFlags are the persistent flags that override settings keys of the
// same name
var boundFlags = []string{
	common.OutputFlagName,
	common.LogLevelFlagName,
	common.LogFileFlagName,
	common.BaseURLFlagName,
	common.FilterFlagName,
	common.PerPageFlagName,
	common.FanOutFlagName,
}

func (o *options) preRun(c *cobra.Command, _ []string) error {
	cfg, err := config.Load(o.configDir, o.environment, o.section)
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	for _, name := range boundFlags {
		if err := cfg.BindFlag(name, c.Flags().Lookup(name)); err != nil {
			return &cmd.ConfigurationError{Err: err}
		}
	}

	logger, closer, err := log.New(log.Options{
		Level:   log.ParseLevel(cfg.GetString(config.LogLevelConfigPath)),
		File:    cfg.GetString(config.LogFileConfigPath),
		Console: o.streams.ErrOut,
	})
	if err != nil {
		return &cmd.ConfigurationError{Err: fmt.Errorf("failed to open log file: %w", err)}
	}
	o.closer = closer
	o.format = cfg.GetString(config.OutputConfigPath)
	logger.Debug("settings loaded",
		"environment", cfg.GetEnvironment(), "section", cfg.Section, "files", cfg.GetPaths())

	ctx := context.WithValue(c.Context(), config.ConfigKey, config.Hook(cfg))
	ctx = context.WithValue(ctx, iostreams.StreamsKey, o.streams)
	ctx = context.WithValue(ctx, build.InfoKey, o.buildInfo)
	ctx = context.WithValue(ctx, cmd.HelpdeskFactoryKey, o.factory)
	ctx = log.WithLogger(ctx, logger)
	c.SetContext(ctx)
	return nil
}

func (o *options) postRun(_ *cobra.Command, _ []string) error {
	return o.close()
}

func (o *options) close() error {
	if o.closer == nil {
		return nil
	}
	err := o.closer.Close()
	o.closer = nil
	return err
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, s *iostreams.IOStreams, bi *build.Info, opts ...Option) int {
	o := newOptions(s, bi, opts...)
	rootCmd := newRootCmd(o)
	if o.args != nil {
		rootCmd.SetArgs(o.args)
	}

	err := rootCmd.ExecuteContext(ctx)
	defer func() { _ = o.close() }()
	if err == nil {
		return 0
	}

	var executionError *cmd.ExecutionError
	if errors.As(err, &executionError) {
		format := o.format
		if format == "" {
			format = o.outputFormat.String()
		}
		printExecutionError(s.ErrOut, format, executionError)
	}
	return 1
}

type errorView struct {
	Error   string         `json:"error" yaml:"error"`
	Details string         `json:"details,omitempty" yaml:"details,omitempty"`
	Attrs   map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

func printExecutionError(w io.Writer, format string, e *cmd.ExecutionError) {
	if format != "json" && format != "yaml" {
		args := append([]any{"error", e.Err}, e.Attrs...)
		slog.New(log.NewFriendlyErrorHandler(w)).Error(e.Msg, args...)
		return
	}

	view := errorView{Error: e.Msg}
	if e.Err != nil && e.Err.Error() != e.Msg {
		view.Details = e.Err.Error()
	}
	for i := 0; i+1 < len(e.Attrs); i += 2 {
		if view.Attrs == nil {
			view.Attrs = map[string]any{}
		}
		view.Attrs[fmt.Sprint(e.Attrs[i])] = e.Attrs[i+1]
	}

	printer, err := cli.Format(format, w)
	if err != nil {
		_, _ = fmt.Fprintf(w, "Error: %s\n", e.Msg)
		return
	}
	defer printer.Flush()
	printer.Print(view)
}
