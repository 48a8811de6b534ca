package clean

import (
	"errors"
	"fmt"

	"github.com/esfa/deskctl/internal/cleanup"
	"github.com/esfa/deskctl/internal/cmd"
	"github.com/esfa/deskctl/internal/cmd/common"
	"github.com/esfa/deskctl/internal/cmd/root/verbs"
	"github.com/esfa/deskctl/internal/config"
	"github.com/esfa/deskctl/internal/meta"
	"github.com/esfa/deskctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Clean

	FollowFlagName = "follow"
)

var (
	use   = Verb.String()
	short = "Delete every organization and end-user matching the filter"
	long  = normalizers.LongDesc(`
		Delete every organization, then every end-user, that the helpdesk search
		returns for the configured filter. Deletes are sent in batches of 500 and
		user batches are spaced out by the user cooldown.

		With --follow the command keeps going after the first pass: it asks the
		helpdesk how many records are left, pauses, and cleans again until both
		counts reach zero or --max-passes is hit.`)
	example = normalizers.Examples(fmt.Sprintf(`
		# Clean once, asking for confirmation
		%[1]s clean
		# Clean without prompting and keep going until the helpdesk is empty
		%[1]s clean --approve --follow
		# Give up after three follow up passes
		%[1]s clean --approve --follow --max-passes 3
		`, meta.CLIName))
)

type cleanCmd struct {
	approve bool
	follow  bool
}

// Result is what clean prints for json and yaml output
type Result struct {
	Clean  *cleanup.CleanSummary  `json:"clean" yaml:"clean"`
	Report *cleanup.ReportSummary `json:"report,omitempty" yaml:"report,omitempty"`
}

// NewCleanCmd builds the clean verb
func NewCleanCmd() *cobra.Command {
	c := &cleanCmd{}

	rv := &cobra.Command{
		Use:               use,
		Short:             short,
		Long:              long,
		Example:           example,
		Args:              verbs.NoPositionalArgs,
		PersistentPreRunE: c.bindFlags,
		RunE:              c.run,
	}

	rv.Flags().BoolVar(&c.approve, common.ApproveFlagName, false,
		"Skip the confirmation prompt (not configurable)")
	rv.Flags().BoolVar(&c.follow, FollowFlagName, false,
		"Repeat counting, pausing and cleaning until the helpdesk reports no records")
	rv.Flags().Duration(config.UserCooldownConfigPath, 0,
		fmt.Sprintf(`Wait between user delete batches.
- Config path: [ %s ]
- Default    : [ %s ]`, config.UserCooldownConfigPath, config.DefaultUserCooldown))
	rv.Flags().Duration(config.PauseConfigPath, 0,
		fmt.Sprintf(`Pause between passes with --follow.
- Config path: [ %s ]
- Default    : [ %s ]`, config.PauseConfigPath, config.DefaultPause))
	rv.Flags().Int(config.MaxPassesConfigPath, 0,
		fmt.Sprintf(`Stop --follow after this many extra passes; 0 never stops.
- Config path: [ %s ]`, config.MaxPassesConfigPath))

	return rv
}

func (c *cleanCmd) bindFlags(cobraCmd *cobra.Command, args []string) error {
	verbs.Mark(Verb)(cobraCmd, args)
	cmd.SetDeleteApprove(cobraCmd, c.approve)

	helper := cmd.BuildHelper(cobraCmd, args)
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	for _, name := range []string{config.UserCooldownConfigPath, config.PauseConfigPath, config.MaxPassesConfigPath} {
		if err := cfg.BindFlag(name, cobraCmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

func (c *cleanCmd) run(cobraCmd *cobra.Command, args []string) error {
	helper := cmd.BuildHelper(cobraCmd, args)
	return execute(helper, c.follow)
}

func execute(helper cmd.Helper, follow bool) error {
	runner, settings, err := cmd.BuildRunner(helper)
	if err != nil {
		return err
	}

	err = cmd.ConfirmDelete(helper,
		fmt.Sprintf("every organization and end-user in %s matching %q", settings.BaseURL, settings.Filter),
		"Deleted records cannot be recovered.")
	if err != nil {
		return err
	}

	ctx := helper.GetContext()
	result := &Result{}
	result.Clean, err = runner.Clean(ctx)
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "clean pass failed", err)
	}

	if follow {
		result.Report, err = runner.Report(ctx)
		if errors.Is(err, cleanup.ErrPassLimit) {
			last := result.Report.Counts[len(result.Report.Counts)-1]
			return cmd.PrepareExecutionErrorWithHelper(helper,
				fmt.Sprintf("helpdesk still reports records after %d passes", result.Report.Passes), err,
				"users", last.Users, "organizations", last.Organizations)
		}
		if err != nil {
			return cmd.PrepareExecutionErrorWithHelper(helper, "follow up pass failed", err)
		}
	}

	return cmd.PrintResult(helper, result)
}
