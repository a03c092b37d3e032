package consts

import "os"

const (
	// AppName is the binary name and the directory name used for per-user files
	AppName = "adpt"

	// ConfigFileName is the name of the persisted configuration file
	ConfigFileName = "config.yaml"

	// DotEnvFileName is loaded from the working directory before reading the environment
	DotEnvFileName = ".env"

	// DefaultBaseURL is offered as the platform URL when configuring for the first time
	DefaultBaseURL = "https://app.adaptive.ml"

	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)
)
