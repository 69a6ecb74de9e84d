package dotman

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/dotman/internal/version"
	"github.com/arthur-debert/dotman/pkg/config"
	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/spf13/cobra"
)

func (c *cli) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "init",
		Short:   MsgInitShort,
		Long:    MsgInitLong,
		Args:    cobra.NoArgs,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(nil)
			if err != nil {
				return err
			}
			res, err := rt.Init(cmd.Context())
			return c.render(cmd, rt, res, err)
		},
	}
}

func (c *cli) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add <file>...",
		Aliases: []string{"track"},
		Short:   MsgAddShort,
		Long:    MsgAddLong,
		Example: MsgAddExample,
		Args:    cobra.MinimumNArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(nil)
			if err != nil {
				return err
			}
			res, err := rt.Track(cmd.Context(), args)
			return c.render(cmd, rt, res, err)
		},
	}
}

func (c *cli) newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "remove <file>...",
		Aliases:           []string{"untrack", "rm"},
		Short:             MsgRemoveShort,
		Long:              MsgRemoveLong,
		Args:              cobra.MinimumNArgs(1),
		GroupID:           "core",
		ValidArgsFunction: c.trackedCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(nil)
			if err != nil {
				return err
			}
			res, err := rt.Untrack(cmd.Context(), args)
			return c.render(cmd, rt, res, err)
		},
	}
}

// trackedCompletion offers the home paths of tracked files not already given
func (c *cli) trackedCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	rt, err := c.runtime(nil)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	keys, err := rt.Tracker.List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	given := make(map[string]bool, len(args))
	for _, arg := range args {
		given[arg] = true
	}

	var candidates []string
	for _, key := range keys {
		home, err := rt.Paths.HomePath(key)
		if err != nil || given[home] {
			continue
		}
		candidates = append(candidates, home)
	}
	return candidates, cobra.ShellCompDirectiveNoFileComp
}

func (c *cli) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   MsgListShort,
		Long:    MsgListLong,
		Args:    cobra.NoArgs,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(nil)
			if err != nil {
				return err
			}
			res, err := rt.List()
			return c.render(cmd, rt, res, err)
		},
	}
}

func (c *cli) newInstallCmd() *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:     "install [remote-url]",
		Short:   MsgInstallShort,
		Long:    MsgInstallLong,
		Example: MsgInstallExample,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra map[string]interface{}
			if cmd.Flags().Changed("jobs") {
				if jobs < 1 {
					return errors.Newf(errors.ErrInvalidInput, MsgErrJobs, jobs)
				}
				extra = map[string]interface{}{"install.jobs": jobs}
			}

			rt, err := c.runtime(extra)
			if err != nil {
				return err
			}
			var remote string
			if len(args) == 1 {
				remote = args[0]
			}
			res, err := rt.Install(cmd.Context(), remote)
			return c.render(cmd, rt, res, err)
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, MsgFlagJobs)
	return cmd
}

func (c *cli) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "sync",
		Short:   MsgSyncShort,
		Long:    MsgSyncLong,
		Args:    cobra.NoArgs,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(nil)
			if err != nil {
				return err
			}
			res, err := rt.Sync(cmd.Context())
			return c.render(cmd, rt, res, err)
		},
	}
}

func (c *cli) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"st"},
		Short:   MsgStatusShort,
		Long:    MsgStatusLong,
		Args:    cobra.NoArgs,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(nil)
			if err != nil {
				return err
			}
			res, err := rt.Status(cmd.Context())
			return c.render(cmd, rt, res, err)
		},
	}
}

// configValues is what config get prints: key = value lines in text, an
// object in JSON.
type configValues map[string]string

func (v configValues) String() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("\n")
		}
		if len(v) == 1 {
			b.WriteString(v[k])
			continue
		}
		fmt.Fprintf(&b, "%s = %s", k, v[k])
	}
	return b.String()
}

// configPath is printed as-is by every renderer except JSON.
type configPath struct {
	Path string `json:"path"`
}

func (p configPath) String() string { return p.Path }

func (c *cli) configStore() *config.Store {
	return config.NewStore(config.Options{
		Path:      c.flags.configPath,
		Overrides: c.overrides(nil),
	})
}

// printValue renders v with the configured format. A config file that does
// not load falls back to auto so the error stays visible.
func (c *cli) printValue(cmd *cobra.Command, store *config.Store, v interface{}) error {
	configured := ""
	if cfg, err := store.Config(); err == nil {
		configured = cfg.Output.Format
	}
	r, err := c.renderer(cmd, configured)
	if err != nil {
		return err
	}
	return r.RenderResult(v)
}

func (c *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		Example: MsgConfigExample,
		GroupID: "core",
	}

	keyCompletion := func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var out []string
		for _, key := range config.Keys() {
			out = append(out, key+"\t"+config.Help(key))
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}

	get := &cobra.Command{
		Use:               "get [key]",
		Short:             MsgConfigGetShort,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: keyCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := c.configStore()
			keys := config.Keys()
			if len(args) == 1 {
				keys = args
			}
			values := make(configValues, len(keys))
			for _, key := range keys {
				v, err := store.Get(key)
				if err != nil {
					return err
				}
				values[key] = v
			}
			return c.printValue(cmd, store, values)
		},
	}

	set := &cobra.Command{
		Use:               "set <key> <value>",
		Short:             MsgConfigSetShort,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: keyCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := c.configStore()
			if err := store.Set(args[0], args[1]); err != nil {
				return err
			}
			v, err := store.Get(args[0])
			if err != nil {
				return err
			}
			return c.printValue(cmd, store, configValues{args[0]: v})
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: MsgConfigPathShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := c.configStore()
			return c.printValue(cmd, store, configPath{Path: store.Path()})
		},
	}

	cmd.AddCommand(get, set, path)
	return cmd
}

func (c *cli) newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "topics [topic]",
		Short:   MsgTopicsShort,
		Long:    MsgTopicsLong,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "misc",
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if c.topics == nil || len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return c.topics.ListTopics(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.topics == nil {
				return errors.New(errors.ErrInternal, "help topics are unavailable")
			}
			if len(args) == 0 {
				c.topics.WriteList(cmd.OutOrStdout(), cmd.Root().Name())
				return nil
			}
			topic, ok := c.topics.GetTopic(args[0])
			if !ok {
				return errors.Newf(errors.ErrInvalidInput, MsgErrUnknownTopic, args[0]).
					WithDetail("topic", args[0])
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), c.topics.Render(topic))
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		Args:    cobra.NoArgs,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
			return err
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		GroupID:               "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
