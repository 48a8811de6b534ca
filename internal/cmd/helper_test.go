package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esfa/deskctl/internal/cmd/common"
	"github.com/esfa/deskctl/internal/cmd/root/verbs"
	"github.com/esfa/deskctl/internal/config"
	"github.com/esfa/deskctl/internal/helpdesk"
	"github.com/esfa/deskctl/internal/iostreams"
	testCmd "github.com/esfa/deskctl/test/cmd"
	testConfig "github.com/esfa/deskctl/test/config"
)

func TestTryConvertErrorToAttrs(t *testing.T) {
	assert.Nil(t, TryConvertErrorToAttrs(errors.New("connection lost")))

	plain := &helpdesk.APIError{StatusCode: 401, Method: "GET", URL: "/api/v2/search.json"}
	assert.Equal(t, []any{"status", 401}, TryConvertErrorToAttrs(fmt.Errorf("failed to count users: %w", plain)))

	invalid := &helpdesk.APIError{StatusCode: 422, Body: `{"details":{"phone":[{"description":"Phone is invalid"}]}}`}
	assert.Equal(t, []any{"status", 422, "reason", "Phone is invalid"}, TryConvertErrorToAttrs(invalid))
}

func TestPrepareExecutionErrorAddsAPIDetails(t *testing.T) {
	err := PrepareExecutionErrorWithHelper(nil, "clean pass failed",
		&helpdesk.APIError{StatusCode: 403}, "kind", "users")

	assert.Equal(t, "clean pass failed", err.Msg)
	assert.Equal(t, []any{"kind", "users", "status", 403}, err.Attrs)
}

func confirmHelper(streams *iostreams.IOStreams, verb verbs.VerbValue) *testCmd.MockHelper {
	return &testCmd.MockHelper{
		GetStreamsMock: func() *iostreams.IOStreams { return streams },
		GetVerbMock:    func() (verbs.VerbValue, error) { return verb, nil },
	}
}

func TestConfirmDeleteNamesTheVerb(t *testing.T) {
	streams, in, out, _ := iostreams.NewTestIOStreams()
	in.WriteString("yes\n")

	require.NoError(t, ConfirmDelete(confirmHelper(&streams, verbs.Clean), "3 organizations", "", "No undo."))
	assert.Equal(t,
		"\nYou are about to delete 3 organizations\nNo undo.\n\nDo you want to continue with clean? Type 'yes' to confirm: ",
		out.String())
}

func TestConfirmDeleteDeclined(t *testing.T) {
	streams, in, out, _ := iostreams.NewTestIOStreams()
	in.WriteString("nope\n")

	err := ConfirmDelete(confirmHelper(&streams, ""), "3 organizations")
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "delete cancelled", execErr.Msg)
	assert.Contains(t, out.String(), "continue with the delete?")
}

func TestConfirmDeleteCancelledContext(t *testing.T) {
	streams, _, _, _ := iostreams.NewTestIOStreams()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	helper := confirmHelper(&streams, verbs.Clean)
	helper.GetContextMock = func() context.Context { return ctx }

	err := ConfirmDelete(helper, "everything")
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "delete cancelled", execErr.Msg)
}

func TestBuildRunnerUsesStderrForStructuredOutput(t *testing.T) {
	streams, _, out, errOut := iostreams.NewTestIOStreams()
	api := &helpdesk.MockAPI{}
	helper := &testCmd.MockHelper{
		GetStreamsMock:      func() *iostreams.IOStreams { return &streams },
		GetOutputFormatMock: func() (common.OutputFormat, error) { return common.JSON, nil },
		GetConfigMock: func() (config.Hook, error) {
			return &testConfig.MockConfigHook{Values: map[string]any{
				config.UserNameConfigPath:     "agent@example.com",
				config.UserPasswordConfigPath: "secret",
				config.BaseURLConfigPath:      "https://desk.example.com/",
				config.FilterConfigPath:       "created>2019-07-20",
				config.PerPageConfigPath:      50,
			}}, nil
		},
		GetHelpdeskAPIMock: func(*config.Settings, *slog.Logger) (helpdesk.API, error) {
			return api, nil
		},
	}

	runner, settings, err := BuildRunner(helper)
	require.NoError(t, err)

	assert.Equal(t, 50, settings.PerPage)
	assert.Same(t, errOut, runner.Out)
	assert.NotSame(t, out, runner.Out)
	assert.False(t, runner.Interactive)
	assert.Equal(t, iostreams.DefaultWidth, runner.Width)
	assert.Equal(t, helpdesk.RoleEndUser, runner.UserRole)
}
