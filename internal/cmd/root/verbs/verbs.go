package verbs

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

const (
	Clean   = VerbValue("clean")
	Count   = VerbValue("count")
	UnShare = VerbValue("unshare")
	Version = VerbValue("version")
)

// Empty type to represent the _type_ Verb. Genesis is to support a key in a Context
type VerbKey struct{}

// Verb is a global instance of the VerbKey type
var Verb = VerbKey{}

// Will represent a specific Verb (clean, count, unshare, version)
type VerbValue string

func (v VerbValue) String() string {
	return string(v)
}

// Mark returns a PersistentPreRun hook storing v on the command context
func Mark(v VerbValue) func(*cobra.Command, []string) {
	return func(c *cobra.Command, _ []string) {
		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		c.SetContext(context.WithValue(ctx, Verb, v))
	}
}

// NoPositionalArgs rejects positional arguments; every input is a flag or a
// setting.
func NoPositionalArgs(c *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q: %s takes flags only", args[0], c.CommandPath())
	}
	return nil
}
