package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/esfa/deskctl/internal/build"
	"github.com/esfa/deskctl/internal/cmd/common"
	"github.com/esfa/deskctl/internal/cmd/root/verbs"
	"github.com/esfa/deskctl/internal/config"
	"github.com/esfa/deskctl/internal/helpdesk"
	"github.com/esfa/deskctl/internal/iostreams"
	"github.com/esfa/deskctl/internal/log"
	"github.com/spf13/cobra"
)

type Helper interface {
	GetCmd() *cobra.Command
	GetArgs() []string
	GetVerb() (verbs.VerbValue, error)
	GetStreams() *iostreams.IOStreams
	GetConfig() (config.Hook, error)
	GetOutputFormat() (common.OutputFormat, error)
	GetLogger() (*slog.Logger, error)
	GetBuildInfo() (*build.Info, error)
	GetContext() context.Context
	GetHelpdeskAPI(settings *config.Settings, logger *slog.Logger) (helpdesk.API, error)
}

// HelpdeskFactory builds the API client a command talks to. Tests swap it
// on the command context for one returning a helpdesk.MockAPI.
type HelpdeskFactory func(settings *config.Settings, logger *slog.Logger) (helpdesk.API, error)

type helpdeskFactoryKey struct{}

// HelpdeskFactoryKey is the context key holding the HelpdeskFactory
var HelpdeskFactoryKey = helpdeskFactoryKey{}

// DefaultHelpdeskFactory builds a REST client from the settings
func DefaultHelpdeskFactory(settings *config.Settings, logger *slog.Logger) (helpdesk.API, error) {
	return helpdesk.NewClient(helpdesk.Options{
		BaseURL:  settings.BaseURL,
		UserName: settings.UserName,
		Token:    settings.UserPassword,
		Logger:   logger,
	})
}

type CommandHelper struct {
	// Cmd is a pointer to the command that is being executed
	Cmd *cobra.Command
	// Args are the arguments (not flags) passed to the command
	Args []string
}

func (r *CommandHelper) GetCmd() *cobra.Command {
	return r.Cmd
}

func (r *CommandHelper) GetArgs() []string {
	return r.Args
}

func (r *CommandHelper) GetBuildInfo() (*build.Info, error) {
	info, ok := r.Cmd.Context().Value(build.InfoKey).(*build.Info)
	if !ok || info == nil {
		return nil, &ConfigurationError{
			Err: fmt.Errorf("no build info configured"),
		}
	}
	return info, nil
}

func (r *CommandHelper) GetLogger() (*slog.Logger, error) {
	rv, ok := r.Cmd.Context().Value(log.LoggerKey).(*slog.Logger)
	if !ok || rv == nil {
		return nil, &ConfigurationError{
			Err: fmt.Errorf("no logger configured"),
		}
	}
	return rv, nil
}

func (r *CommandHelper) GetVerb() (verbs.VerbValue, error) {
	verbVal, ok := r.Cmd.Context().Value(verbs.Verb).(verbs.VerbValue)
	if !ok {
		return "", PrepareExecutionErrorMsg(r, "no verb found in context")
	}
	return verbVal, nil
}

func (r *CommandHelper) GetStreams() *iostreams.IOStreams {
	return r.Cmd.Context().Value(iostreams.StreamsKey).(*iostreams.IOStreams)
}

func (r *CommandHelper) GetConfig() (config.Hook, error) {
	cfgVal, ok := r.Cmd.Context().Value(config.ConfigKey).(config.Hook)
	if !ok || cfgVal == nil {
		return nil, PrepareExecutionErrorMsg(r, "no config found in context")
	}
	return cfgVal, nil
}

func (r *CommandHelper) GetOutputFormat() (common.OutputFormat, error) {
	c, e := r.GetConfig()
	if e != nil {
		return common.TEXT, e
	}
	rv, e := common.OutputFormatStringToIota(c.GetString(config.OutputConfigPath))
	if e != nil {
		return common.TEXT, &ConfigurationError{Err: e}
	}
	return rv, nil
}

func (r *CommandHelper) GetContext() context.Context {
	return r.Cmd.Context()
}

func (r *CommandHelper) GetHelpdeskAPI(settings *config.Settings, logger *slog.Logger) (helpdesk.API, error) {
	factory, ok := r.Cmd.Context().Value(HelpdeskFactoryKey).(HelpdeskFactory)
	if !ok || factory == nil {
		factory = DefaultHelpdeskFactory
	}
	api, err := factory(settings, logger)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	return api, nil
}

func BuildHelper(cmd *cobra.Command, args []string) Helper {
	return &CommandHelper{
		Cmd:  cmd,
		Args: args,
	}
}

// ConfigurationError represents errors that are a result of bad flags, combinations of
// flags, configuration settings, environment values, or other command usage issues.
type ConfigurationError struct {
	Err error
}

// ExecutionError represents errors that occur after a command has been validated and an
// unsuccessful result occurs. Network errors, server side errors, invalid credentials or
// responses are examples of ExecutionError types.
type ExecutionError struct {
	// friendly error message to display to the user
	Msg string
	// Err is the error that occurred during execution
	Err error
	// Optional attributes that can be used to provide additional context to the error
	Attrs []any
}

func (e *ConfigurationError) Error() string {
	return e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// TryConvertErrorToAttrs lifts the response status and the helpdesk's own
// description of an API error into slog style key value pairs. Other errors
// yield nothing.
func TryConvertErrorToAttrs(err error) []any {
	var apiErr *helpdesk.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}
	attrs := []any{"status", apiErr.StatusCode}
	if reason := helpdesk.Describe(apiErr); reason != apiErr.Error() {
		attrs = append(attrs, "reason", reason)
	}
	return attrs
}

// PrepareExecutionErrorWithHelper mirrors PrepareExecutionError but accepts a Helper.
// It ensures command usage/error output is silenced for runtime failures, and
// adds the details of a helpdesk API error to attrs.
func PrepareExecutionErrorWithHelper(helper Helper, msg string, err error, attrs ...any) *ExecutionError {
	attrs = append(attrs, TryConvertErrorToAttrs(err)...)
	if helper == nil {
		return PrepareExecutionError(msg, err, nil, attrs...)
	}
	return PrepareExecutionError(msg, err, helper.GetCmd(), attrs...)
}

// PrepareExecutionErrorMsg builds an ExecutionError from a message when a backing error
// is not already available.
func PrepareExecutionErrorMsg(helper Helper, msg string, attrs ...any) *ExecutionError {
	if msg == "" {
		return PrepareExecutionErrorWithHelper(helper, msg, errors.New("an unknown error occurred"), attrs...)
	}
	return PrepareExecutionErrorWithHelper(helper, msg, errors.New(msg), attrs...)
}

// This will construct an execution error AND turn off error and usage output for the command
func PrepareExecutionError(msg string, err error, cmd *cobra.Command, attrs ...any) *ExecutionError {
	if cmd != nil {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
	}

	return &ExecutionError{
		Msg:   msg,
		Err:   err,
		Attrs: attrs,
	}
}
