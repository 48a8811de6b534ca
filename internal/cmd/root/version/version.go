package version

import (
	"fmt"
	"io"

	"github.com/esfa/deskctl/internal/cmd"
	"github.com/esfa/deskctl/internal/cmd/common"
	"github.com/esfa/deskctl/internal/cmd/root/verbs"
	"github.com/esfa/deskctl/internal/meta"
	"github.com/esfa/deskctl/internal/util/normalizers"
	"github.com/segmentio/cli"
	"github.com/spf13/cobra"
)

const (
	ShowCommitFlagName = "show-commit"
)

var (
	versionUse   = verbs.Version.String()
	versionShort = fmt.Sprintf("Print the %s version", meta.CLIName)
	versionLong  = normalizers.LongDesc(
		`The version command prints the version and other optional information`)
	versionExample = normalizers.Examples(fmt.Sprintf(`
		# Print the simple version
		%[1]s version
		# Print the version and the git commit hash
		%[1]s version --show-commit
		`, meta.CLIName))
)

type versionCmd struct {
	showCommit bool
}

// Build a new instance of the version command
func NewVersionCmd() *cobra.Command {
	c := &versionCmd{}
	rv := &cobra.Command{
		Use:              versionUse,
		Short:            versionShort,
		Long:             versionLong,
		Example:          versionExample,
		Args:             verbs.NoPositionalArgs,
		PersistentPreRun: verbs.Mark(verbs.Version),
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return c.run(cmd.BuildHelper(cobraCmd, args))
		},
	}

	rv.Flags().BoolVar(&c.showCommit, ShowCommitFlagName, false,
		"True to show the git commit hash and build date")

	return rv
}

// run performs the actual version command logic
func (c *versionCmd) run(helper cmd.Helper) error {
	info, err := helper.GetBuildInfo()
	if err != nil {
		return err
	}

	result := map[string]any{
		"version": info.Version,
	}
	if c.showCommit {
		result["commit"] = info.Commit
		result["date"] = info.Date
	}

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}

	if outType == common.TEXT {
		return printText(result, helper.GetStreams().Out)
	}

	p, err := cli.Format(outType.String(), helper.GetStreams().Out)
	if err != nil {
		return err
	}
	defer p.Flush()
	p.Print(result)

	return nil
}

// printText renders "version (commit, date)" on a single line
func printText(data map[string]any, out io.Writer) error {
	if _, e := fmt.Fprintf(out, "%s", data["version"]); e != nil {
		return e
	}
	if commit, ok := data["commit"]; ok {
		if _, e := fmt.Fprintf(out, " (%s, %s)", commit, data["date"]); e != nil {
			return e
		}
	}
	_, err := fmt.Fprintln(out)
	return err
}
