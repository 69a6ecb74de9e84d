package dotman

import (
	"embed"
	"io/fs"

	"github.com/arthur-debert/dotman/internal/version"
	"github.com/arthur-debert/dotman/pkg/cobrax/topics"
	"github.com/arthur-debert/dotman/pkg/commands"
	"github.com/arthur-debert/dotman/pkg/config"
	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/logging"
	"github.com/arthur-debert/dotman/pkg/ui"
	"github.com/arthur-debert/dotman/pkg/ui/display"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

//go:embed topics
var topicsFS embed.FS

// globalFlags are the persistent flags every command sees
type globalFlags struct {
	verbosity  int
	format     string
	repository string
	configPath string
}

// cli carries the flags and the base runtime options into command closures
type cli struct {
	flags  globalFlags
	base   commands.Options
	topics *topics.TopicManager
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(commands.Options{})
}

// newRootCmd builds the command tree; base lets tests supply the home
// directory and a fake version-control backend.
func newRootCmd(base commands.Options) *cobra.Command {
	initTemplateFormatting()

	c := &cli{base: base}

	rootCmd := &cobra.Command{
		Use:     "dotman",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLoggerWithWriter(c.flags.verbosity, cmd.ErrOrStderr())
			logging.LogCommand(cmd.CommandPath(), args)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(errors.ErrInvalidInput, MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&c.flags.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVarP(&c.flags.format, "format", "f", "", MsgFlagFormat)
	rootCmd.PersistentFlags().StringVarP(&c.flags.repository, "repository", "r", "", MsgFlagRepository)
	rootCmd.PersistentFlags().StringVar(&c.flags.configPath, "config", "", MsgFlagConfig)
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return config.Formats, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(c.newInitCmd())
	rootCmd.AddCommand(c.newAddCmd())
	rootCmd.AddCommand(c.newRemoveCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newInstallCmd())
	rootCmd.AddCommand(c.newSyncCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newConfigCmd())
	rootCmd.AddCommand(c.newTopicsCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Help topics ship inside the binary
	if sub, err := fs.Sub(topicsFS, "topics"); err == nil {
		tm, err := topics.InitializeWithOptions(rootCmd, sub, topics.Options{
			Extensions: []string{".txt", ".md"},
			Renderer:   topics.NewGlamourRenderer(),
		})
		if err == nil {
			c.topics = tm
		}
	}
	rootCmd.SetHelpCommandGroupID("misc")

	return rootCmd
}

// runtime opens the components for one command, applying flag overrides
// on top of the configuration layers.
func (c *cli) runtime(extra map[string]interface{}) (*commands.Runtime, error) {
	opts := c.base
	opts.Overrides = c.overrides(extra)
	if c.flags.configPath != "" {
		opts.ConfigPath = c.flags.configPath
	}
	return commands.Open(opts)
}

func (c *cli) overrides(extra map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(c.base.Overrides)+len(extra)+1)
	for k, v := range c.base.Overrides {
		merged[k] = v
	}
	if c.flags.repository != "" {
		merged["repository.path"] = c.flags.repository
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// renderer picks the output format: the --format flag, else output.format.
func (c *cli) renderer(cmd *cobra.Command, configured string) (ui.Renderer, error) {
	name := configured
	if c.flags.format != "" {
		name = c.flags.format
	}
	format, err := ui.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return ui.NewRenderer(format, cmd.OutOrStdout())
}

// render prints res and passes cmdErr through, so partial results are shown
// before the error that stopped the command.
func (c *cli) render(cmd *cobra.Command, rt *commands.Runtime, res *display.Result, cmdErr error) error {
	if res == nil || (cmdErr != nil && len(res.Items) == 0) {
		return cmdErr
	}
	r, err := c.renderer(cmd, rt.Config.Output.Format)
	if err != nil {
		return err
	}
	if err := r.RenderResult(res); err != nil {
		return err
	}
	return cmdErr
}
