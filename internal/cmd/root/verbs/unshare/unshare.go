package unshare

import (
	"fmt"

	"github.com/esfa/deskctl/internal/cmd"
	"github.com/esfa/deskctl/internal/cmd/root/verbs"
	"github.com/esfa/deskctl/internal/meta"
	"github.com/esfa/deskctl/internal/mutate"
	"github.com/esfa/deskctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const Verb = verbs.UnShare

var (
	use   = Verb.String()
	short = "Clear the shared phone number flag on every matching user"
	long  = normalizers.LongDesc(`
		Walks every user the search returns for the configured filter and, for
		each one with a shared phone number, submits the user with the flag
		cleared. Users that cannot be updated are listed with the reason the
		helpdesk gave once the walk is done.`)
	example = normalizers.Examples(fmt.Sprintf(`
		# Unshare phone numbers
		%[1]s unshare
		# Use the zendesk section of the settings files
		%[1]s unshare --config-section zendesk
		`, meta.CLIName))
)

// Result is what unshare prints for json and yaml output
type Result struct {
	Examined int              `json:"examined" yaml:"examined"`
	Updated  int              `json:"updated" yaml:"updated"`
	Failures []mutate.Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// NewUnShareCmd builds the unshare verb
func NewUnShareCmd() *cobra.Command {
	return &cobra.Command{
		Use:              use,
		Short:            short,
		Long:             long,
		Example:          example,
		Args:             verbs.NoPositionalArgs,
		PersistentPreRun: verbs.Mark(Verb),
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}
}

func run(helper cmd.Helper) error {
	runner, _, err := cmd.BuildRunner(helper)
	if err != nil {
		return err
	}
	summary, err := runner.UnShare(helper.GetContext())
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "unshare pass failed", err)
	}
	return cmd.PrintResult(helper, Result{
		Examined: summary.Examined,
		Updated:  summary.Updated,
		Failures: summary.SortedFailures(),
	})
}
