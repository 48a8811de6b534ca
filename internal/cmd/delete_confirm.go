package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type deleteContextKey string

const deleteApproveContextKey deleteContextKey = "deskctl-delete-approve"

// SetDeleteApprove stores the --approve flag state on the command context
func SetDeleteApprove(cmd *cobra.Command, approved bool) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, deleteApproveContextKey, approved))
}

// DeleteApproved reports whether the user opted to skip the confirmation prompt
func DeleteApproved(helper Helper) bool {
	if helper == nil || helper.GetCmd() == nil {
		return false
	}
	ctx := helper.GetCmd().Context()
	if ctx == nil {
		return false
	}
	approved, _ := ctx.Value(deleteApproveContextKey).(bool)
	return approved
}

// ConfirmDelete asks the user to type "yes" before records are removed,
// unless --approve was given.
func ConfirmDelete(helper Helper, description string, warnings ...string) error {
	if DeleteApproved(helper) {
		return nil
	}

	streams := helper.GetStreams()
	fmt.Fprintf(streams.Out, "\nYou are about to delete %s\n", description)
	for _, warning := range warnings {
		if strings.TrimSpace(warning) != "" {
			fmt.Fprintln(streams.Out, warning)
		}
	}
	action := "the delete"
	if verb, err := helper.GetVerb(); err == nil && verb != "" {
		action = verb.String()
	}
	fmt.Fprintf(streams.Out, "\nDo you want to continue with %s? Type 'yes' to confirm: ", action)

	lineCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(streams.In).ReadString('\n')
		if err != nil && line == "" {
			errCh <- err
			return
		}
		lineCh <- line
	}()

	ctx := helper.GetContext()
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return PrepareExecutionErrorMsg(helper, "delete cancelled")
	case <-errCh:
		return PrepareExecutionErrorMsg(helper, "delete cancelled")
	case line := <-lineCh:
		if strings.ToLower(strings.TrimSpace(line)) != "yes" {
			return PrepareExecutionErrorMsg(helper, "delete cancelled")
		}
		return nil
	}
}
