package count

import (
	"fmt"

	"github.com/esfa/deskctl/internal/cmd"
	"github.com/esfa/deskctl/internal/cmd/root/verbs"
	"github.com/esfa/deskctl/internal/meta"
	"github.com/esfa/deskctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const Verb = verbs.Count

var (
	use     = Verb.String()
	short   = "Show how many users and organizations match the filter"
	long    = normalizers.LongDesc(`Reads the first page of each search and prints the totals the helpdesk reports.`)
	example = normalizers.Examples(fmt.Sprintf(`
		# Print the totals
		%[1]s count
		# Print the totals as json
		%[1]s count -o json
		`, meta.CLIName))
)

// NewCountCmd builds the count verb
func NewCountCmd() *cobra.Command {
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
	counts, err := runner.Count(helper.GetContext())
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to read the helpdesk totals", err)
	}
	return cmd.PrintResult(helper, counts)
}
