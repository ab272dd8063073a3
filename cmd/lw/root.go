package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vanderheijden86/loanwalk/pkg/config"
	"github.com/vanderheijden86/loanwalk/pkg/debug"
	"github.com/vanderheijden86/loanwalk/pkg/version"
)

// envPrefix namespaces environment overrides, e.g. LW_REMOTE_ADDR.
const envPrefix = "LW"

// rootOptions carries flag values and the resolved configuration to the
// subcommands.
type rootOptions struct {
	configFile string
	resume     bool
	noGuide    bool
	noProgress bool
	debug      bool

	v   *viper.Viper
	cfg config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "lw",
		Short: "Guided walkthrough of a mock loan underwriting workflow",
		Long: `lw walks a presenter through a loan application from intake to
decision: data pipeline, suburb traffic light, portfolio impact, risk
simulation and the final underwriting call. Every figure is mock data.

Keys: n/space next step, p previous, ←/→ tabs, 1-8 jump, g guide, ? help.

When stdout is not a terminal lw prints a plain-text transcript of every
step instead of starting the interactive walkthrough.`,
		Version:           version.String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalkthrough(cmd, opts)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (default: "+displayPath(config.ConfigPath())+")")
	pf.String("fixtures", "", "mock data YAML (default: built-in data set)")
	pf.BoolVar(&opts.debug, "debug", false, "enable debug logging (see LW_DEBUG_FILE)")

	f := rootCmd.Flags()
	f.String("remote", "", "serve the presenter remote on `ADDR`, e.g. 127.0.0.1:7788")
	f.String("cue", "", "watch cue file `PATH` for next-step signals")
	f.String("start", "", "open on tab `TAB` (id, e.g. traffic-light)")
	f.BoolVar(&opts.resume, "resume", false, "continue where the last session stopped")
	f.BoolVar(&opts.noGuide, "no-guide", false, "start with the guided overlay hidden")
	f.BoolVar(&opts.noProgress, "no-progress", false, "do not record visited steps")

	bindFlag(opts.v, "fixtures.path", pf, "fixtures")
	bindFlag(opts.v, "remote.addr", f, "remote")
	bindFlag(opts.v, "cue.path", f, "cue")
	bindFlag(opts.v, "ui.start_tab", f, "start")

	rootCmd.AddCommand(newStepsCommand())
	rootCmd.AddCommand(newSignalCommand(opts))
	rootCmd.AddCommand(newIntakeCommand(opts))
	rootCmd.AddCommand(newSessionsCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// load resolves the configuration once for every subcommand.
func (o *rootOptions) load(cmd *cobra.Command, args []string) error {
	if o.debug {
		debug.SetEnabled(true)
	}

	var (
		cfg config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFrom(config.ExpandHome(o.configFile))
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cfg = layerConfig(o.v, cfg)
	if o.noGuide {
		cfg.UI.ShowGuide = false
	}
	if o.noProgress {
		cfg.Progress.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	o.cfg = cfg
	debug.Dump("config", cfg)
	return nil
}

// layerConfig puts environment variables and flags over the file values.
// Precedence: changed flag, then LW_* variable, then config file.
func layerConfig(v *viper.Viper, cfg config.Config) config.Config {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("ui.show_guide", cfg.UI.ShowGuide)
	v.SetDefault("ui.start_tab", cfg.UI.StartTab)
	v.SetDefault("ui.word_wrap", cfg.UI.WordWrap)
	v.SetDefault("fixtures.path", cfg.Fixtures.Path)
	v.SetDefault("remote.addr", cfg.Remote.Addr)
	v.SetDefault("remote.rps", cfg.Remote.RPS)
	v.SetDefault("remote.burst", cfg.Remote.Burst)
	v.SetDefault("remote.max_clients", cfg.Remote.MaxClients)
	v.SetDefault("cue.path", cfg.Cue.Path)
	v.SetDefault("cue.force_poll", cfg.Cue.ForcePoll)
	v.SetDefault("progress.enabled", cfg.Progress.Enabled)
	v.SetDefault("progress.path", cfg.Progress.Path)

	cfg.UI.ShowGuide = v.GetBool("ui.show_guide")
	cfg.UI.StartTab = v.GetString("ui.start_tab")
	cfg.UI.WordWrap = v.GetInt("ui.word_wrap")
	cfg.Fixtures.Path = config.ExpandHome(v.GetString("fixtures.path"))
	cfg.Remote.Addr = v.GetString("remote.addr")
	cfg.Remote.RPS = v.GetFloat64("remote.rps")
	cfg.Remote.Burst = v.GetInt("remote.burst")
	cfg.Remote.MaxClients = v.GetInt("remote.max_clients")
	cfg.Cue.Path = config.ExpandHome(v.GetString("cue.path"))
	cfg.Cue.ForcePoll = v.GetBool("cue.force_poll")
	cfg.Progress.Enabled = v.GetBool("progress.enabled")
	cfg.Progress.Path = config.ExpandHome(v.GetString("progress.path"))
	return cfg
}

func bindFlag(v *viper.Viper, key string, fs *pflag.FlagSet, name string) {
	if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
		// Only reachable with a misspelled flag name.
		panic(fmt.Sprintf("bind %s: %v", name, err))
	}
}

// displayPath shortens paths under the home directory for help text.
func displayPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" || !strings.HasPrefix(path, home) {
		return path
	}
	return "~" + strings.TrimPrefix(path, home)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lw version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "lw", version.String())
		},
	}
}
