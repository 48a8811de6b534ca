package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esfa/deskctl/internal/cmd/common"
	"github.com/esfa/deskctl/internal/config"
)

func TestNewCleanCmd(t *testing.T) {
	c := NewCleanCmd()
	require.NotNil(t, c)
	assert.Equal(t, "clean", c.Use)

	for _, name := range []string{
		common.ApproveFlagName,
		FollowFlagName,
		config.UserCooldownConfigPath,
		config.PauseConfigPath,
		config.MaxPassesConfigPath,
	} {
		assert.NotNil(t, c.Flags().Lookup(name), name)
	}
}

func TestCleanRejectsArguments(t *testing.T) {
	c := NewCleanCmd()
	err := c.Args(c, []string{"everything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takes flags only")
}
