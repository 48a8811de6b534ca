package common

import (
	"fmt"

	"github.com/esfa/deskctl/internal/config"
)

// Represents an enum of valid values for the format of the output for this CLI execution
type OutputFormat int

type LogLevel int

const (
	JSON OutputFormat = iota
	YAML
	TEXT
)

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

const (
	// related to the --output flag
	DefaultOutputFormat = config.DefaultOutput
	OutputFlagName      = config.OutputConfigPath
	OutputFlagShort     = "o"

	// related to the --config-dir flag
	ConfigDirFlagName = "config-dir"

	// related to the --env flag
	EnvironmentFlagName = "env"

	// related to the --config-section flag
	SectionFlagName = "config-section"

	// related to the --log-level and --log-file flags
	LogLevelFlagName = config.LogLevelConfigPath
	DefaultLogLevel  = config.DefaultLogLevel
	LogFileFlagName  = config.LogFileConfigPath

	// helpdesk connection flags, shared by every command that talks to the API
	BaseURLFlagName = config.BaseURLConfigPath
	FilterFlagName  = config.FilterConfigPath
	PerPageFlagName = config.PerPageConfigPath
	FanOutFlagName  = config.FanOutConfigPath

	// related to the --approve flag
	ApproveFlagName = "approve"
)

func (of OutputFormat) String() string {
	return [...]string{"json", "yaml", "text"}[of]
}

func OutputFormatStringToIota(format string) (OutputFormat, error) {
	switch format {
	case "json":
		return JSON, nil
	case "yaml":
		return YAML, nil
	case "text":
		return TEXT, nil
	default:
		return TEXT, fmt.Errorf("invalid output format %q, must be one of %v", format, []string{"json", "yaml", "text"})
	}
}

func (ll LogLevel) String() string {
	return [...]string{"trace", "debug", "info", "warn", "error"}[ll]
}

func LogLevelStringToIota(level string) (LogLevel, error) {
	switch level {
	case "trace":
		return TRACE, nil
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return ERROR, fmt.Errorf("invalid log level %q, must be one of %v", level,
			[]string{"trace", "debug", "info", "warn", "error"})
	}
}
