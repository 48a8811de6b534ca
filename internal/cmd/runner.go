package cmd

import (
	"io"

	"github.com/esfa/deskctl/internal/cleanup"
	"github.com/esfa/deskctl/internal/cmd/common"
	"github.com/esfa/deskctl/internal/config"
	"github.com/esfa/deskctl/internal/helpdesk"
	"github.com/esfa/deskctl/internal/iostreams"
	"github.com/esfa/deskctl/internal/retry"
	"github.com/segmentio/cli"
)

// BuildRunner reads and validates the settings, then wires a cleanup.Runner
// to the helpdesk API. Status lines go to stdout for text output and to
// stderr otherwise, so structured results stay parseable.
func BuildRunner(helper Helper) (*cleanup.Runner, *config.Settings, error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return nil, nil, err
	}
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return nil, nil, err
	}

	settings, err := config.GetSettings(cfg)
	if err != nil {
		return nil, nil, &ConfigurationError{Err: err}
	}

	api, err := helper.GetHelpdeskAPI(settings, logger)
	if err != nil {
		return nil, nil, err
	}

	streams := helper.GetStreams()
	var out io.Writer = streams.Out
	interactive, width := streams.OutIsTerminal(), streams.OutWidth()
	if outType != common.TEXT {
		out = streams.ErrOut
		interactive, width = iostreams.IsTerminal(out), iostreams.Width(out)
	}

	return &cleanup.Runner{
		API:          api,
		Out:          out,
		Logger:       logger,
		Filter:       settings.Filter,
		PerPage:      settings.PerPage,
		FanOut:       settings.FanOut,
		UserRole:     helpdesk.RoleEndUser,
		UserCooldown: settings.UserCooldown,
		Pause:        settings.Pause,
		MaxPasses:    settings.MaxPasses,
		Policy:       retry.NewPolicy(helpdesk.IsTransient, nil),
		Interactive:  interactive,
		Width:        width,
	}, settings, nil
}

// PrintResult writes v as json or yaml when one was requested. Text output
// has already been streamed by the runner, so nothing more is printed.
func PrintResult(helper Helper, v any) error {
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	if outType == common.TEXT {
		return nil
	}

	printer, err := cli.Format(outType.String(), helper.GetStreams().Out)
	if err != nil {
		return err
	}
	defer printer.Flush()
	printer.Print(v)
	return nil
}
