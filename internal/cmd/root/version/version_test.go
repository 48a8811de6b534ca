package version

import (
	"encoding/json"
	"testing"

	"github.com/esfa/deskctl/internal/build"
	"github.com/esfa/deskctl/internal/cmd/common"
	"github.com/esfa/deskctl/internal/iostreams"
	"github.com/esfa/deskctl/test/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHelper(all *iostreams.IOStreams, format common.OutputFormat) *cmd.MockHelper {
	return &cmd.MockHelper{
		GetOutputFormatMock: func() (common.OutputFormat, error) {
			return format, nil
		},
		GetStreamsMock: func() *iostreams.IOStreams {
			return all
		},
		GetBuildInfoMock: func() (*build.Info, error) {
			return &build.Info{
				Version: "1.2.0",
				Commit:  "abc123",
				Date:    "2026-01-02",
			}, nil
		},
	}
}

func Test_VersionCmd(t *testing.T) {
	all, _, out, _ := iostreams.NewTestIOStreams()

	c := &versionCmd{}
	require.NoError(t, c.run(newHelper(&all, common.TEXT)))
	assert.Equal(t, "1.2.0\n", out.String())
}

func Test_VersionCmdShowCommit(t *testing.T) {
	all, _, out, _ := iostreams.NewTestIOStreams()

	c := &versionCmd{showCommit: true}
	require.NoError(t, c.run(newHelper(&all, common.TEXT)))
	assert.Equal(t, "1.2.0 (abc123, 2026-01-02)\n", out.String())
}

func Test_VersionCmdJsonOutput(t *testing.T) {
	all, _, out, _ := iostreams.NewTestIOStreams()

	c := &versionCmd{}
	require.NoError(t, c.run(newHelper(&all, common.JSON)))

	var actual map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &actual))
	assert.Equal(t, map[string]any{"version": "1.2.0"}, actual)
}

func Test_NewVersionCmd(t *testing.T) {
	c := NewVersionCmd()
	assert.Equal(t, "version", c.Use)
	assert.NotNil(t, c.Flags().Lookup(ShowCommitFlagName))
}
