package meta

const (
	// CLIName is the binary name used in help text, env var prefixes and file names
	CLIName = "deskctl"

	// EnvPrefix prefixes every environment variable override
	EnvPrefix = "DESKCTL"
)
