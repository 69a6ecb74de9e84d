package dotman

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Track dotfiles in a git repository and link them into place"
	MsgInitShort       = "Create the dotfiles repository"
	MsgAddShort        = "Start tracking files"
	MsgRemoveShort     = "Stop tracking files and restore them"
	MsgListShort       = "List tracked files"
	MsgInstallShort    = "Link every tracked file, cloning the repository if needed"
	MsgSyncShort       = "Pull from and push to the remote"
	MsgStatusShort     = "Show link and repository status"
	MsgConfigShort     = "Read and write settings"
	MsgConfigGetShort  = "Print settings (all of them without a key)"
	MsgConfigSetShort  = "Write a setting to the user config file"
	MsgConfigPathShort = "Print the user config file location"
	MsgTopicsShort     = "Display available documentation topics"
	MsgTopicsLong      = "Display a list of all available help topics, or one topic by name."
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Flag descriptions
	MsgFlagVerbose    = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagFormat     = "Output format: auto, term, text or json (default from output.format)"
	MsgFlagRepository = "Dotfiles repository location (overrides repository.path)"
	MsgFlagConfig     = "User config file (default $XDG_CONFIG_HOME/dotman/config.toml)"
	MsgFlagJobs       = "Entries to link in parallel (default from install.jobs)"

	// Output
	MsgVersionFormat = "dotman version %s\n  commit: %s\n  built:  %s\n"

	// Error messages
	MsgErrNoCommand    = "no command specified"
	MsgErrUnknownTopic = "unknown topic %q; run 'dotman topics' for the list"
	MsgErrJobs         = "--jobs must be at least 1, got %d"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/init-long.txt
	msgInitLongRaw string
	MsgInitLong    = strings.TrimSpace(msgInitLongRaw)

	//go:embed msgs/add-long.txt
	msgAddLongRaw string
	MsgAddLong    = strings.TrimSpace(msgAddLongRaw)

	//go:embed msgs/add-example.txt
	msgAddExampleRaw string
	MsgAddExample    = strings.TrimRight(msgAddExampleRaw, "\n")

	//go:embed msgs/remove-long.txt
	msgRemoveLongRaw string
	MsgRemoveLong    = strings.TrimSpace(msgRemoveLongRaw)

	//go:embed msgs/list-long.txt
	msgListLongRaw string
	MsgListLong    = strings.TrimSpace(msgListLongRaw)

	//go:embed msgs/install-long.txt
	msgInstallLongRaw string
	MsgInstallLong    = strings.TrimSpace(msgInstallLongRaw)

	//go:embed msgs/install-example.txt
	msgInstallExampleRaw string
	MsgInstallExample    = strings.TrimRight(msgInstallExampleRaw, "\n")

	//go:embed msgs/sync-long.txt
	msgSyncLongRaw string
	MsgSyncLong    = strings.TrimSpace(msgSyncLongRaw)

	//go:embed msgs/status-long.txt
	msgStatusLongRaw string
	MsgStatusLong    = strings.TrimSpace(msgStatusLongRaw)

	//go:embed msgs/config-long.txt
	msgConfigLongRaw string
	MsgConfigLong    = strings.TrimSpace(msgConfigLongRaw)

	//go:embed msgs/config-example.txt
	msgConfigExampleRaw string
	MsgConfigExample    = strings.TrimRight(msgConfigExampleRaw, "\n")

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
