package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/treewatch/treewatch/internal/cmdutil"
	"github.com/treewatch/treewatch/internal/config"
	"github.com/treewatch/treewatch/pkg/watch"
)

// methodListFlag is a pflag.Value adapting a comma-separated, ordered list
// of backend names (e.g. "event,poll") into a []watch.Method, used for
// --methods. A dedicated Value is used (rather than a plain StringVar
// parsed after the fact) so an invalid method name is rejected at flag
// parse time with a precise error, matching how the teacher's own
// TemplateFlags.Register wires a custom pflag.Value for structured flag
// input.
type methodListFlag struct {
	methods *[]watch.Method
}

func (f methodListFlag) String() string {
	if f.methods == nil || len(*f.methods) == 0 {
		return ""
	}
	names := make([]string, len(*f.methods))
	for i, m := range *f.methods {
		names[i] = m.String()
	}
	return strings.Join(names, ",")
}

func (f methodListFlag) Set(value string) error {
	var parsed []watch.Method
	for _, name := range strings.Split(value, ",") {
		name = strings.TrimSpace(name)
		switch name {
		case "event":
			parsed = append(parsed, watch.MethodEvent)
		case "poll":
			parsed = append(parsed, watch.MethodPoll)
		default:
			return fmt.Errorf("unknown watch method %q (expected \"event\" or \"poll\")", name)
		}
	}
	*f.methods = parsed
	return nil
}

func (f methodListFlag) Type() string {
	return "methods"
}

var watchConfiguration struct {
	// configPath is the path to a YAML configuration file of defaults.
	configPath string
	// envPath is the path to a .env file of environment-variable overrides.
	envPath string
	// hidden excludes dotfiles from watching.
	hidden bool
	// noCommonIgnores disables the conventional VCS/build-tool ignore set.
	noCommonIgnores bool
	// methods is the ordered backend fallback list, overriding the watch
	// package's default when non-empty (the configuration file has no
	// methods field).
	methods []watch.Method
}

var watchCommand = &cobra.Command{
	Use:   "watch <path>",
	Short: "Recursively watch a directory tree and print change events",
	Args:  cobra.ExactArgs(1),
	Run:   cmdutil.Mainify(watchMain),
}

func init() {
	flags := watchCommand.Flags()
	flags.StringVarP(&watchConfiguration.configPath, "config", "c", "treewatch.yml", "path to a YAML configuration file")
	flags.StringVar(&watchConfiguration.envPath, "env-file", ".env", "path to a .env file of configuration overrides")
	flags.BoolVar(&watchConfiguration.hidden, "ignore-hidden", true, "ignore dotfiles and dot-directories")
	flags.BoolVar(&watchConfiguration.noCommonIgnores, "no-common-ignores", false, "don't exclude conventional VCS/build-tool noise (.git, node_modules, ...)")
	flags.Var(methodListFlag{&watchConfiguration.methods}, "methods", "ordered, comma-separated watch backend fallback list (event,poll)")
}

var _ pflag.Value = methodListFlag{}

func watchMain(_ *cobra.Command, arguments []string) error {
	root, err := filepath.Abs(arguments[0])
	if err != nil {
		return err
	}

	file, err := config.Load(watchConfiguration.configPath)
	if err != nil {
		return err
	}
	if err := config.LoadDotEnv(watchConfiguration.envPath); err != nil {
		return err
	}

	cfg, err := file.Resolve()
	if err != nil {
		return err
	}
	cfg.Ignore.HiddenFiles = watchConfiguration.hidden
	cfg.Ignore.CommonPatterns = !watchConfiguration.noCommonIgnores
	if len(watchConfiguration.methods) > 0 {
		cfg.PreferredMethods = watchConfiguration.methods
	}

	node, err := watch.Watch(root, cfg)
	if err != nil {
		return err
	}

	node.OnChange(printEvent)
	node.OnError(func(err error) {
		cmdutil.Warning(err.Error())
	})
	node.OnWatching(func(err error) {
		if err != nil {
			cmdutil.Fatal(err)
			return
		}
		fmt.Printf("watching %s\n", root)
	})

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, cmdutil.TerminationSignals...)
	<-signals

	node.Close(watch.CloseNormal)
	return nil
}
