package main

import (
	"os"

	"github.com/dhamidi/jolt/config"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("jolt")

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	verbosity  int
	logPath    string

	cfg *config.Config
}

func (o *options) setup(cmd *cobra.Command, args []string) error {
	var logPath *string
	if o.logPath != "" {
		logPath = &o.logPath
	}
	commonlog.Configure(o.verbosity, logPath)

	var err error
	if o.configPath != "" {
		o.cfg, err = config.LoadFile(o.configPath)
	} else {
		o.cfg, err = config.Load(".")
	}
	if err != nil {
		return err
	}

	log.Debugf("entry %s, classpath %v, max attribute depth %d",
		o.cfg.EntryPath(), o.cfg.ClasspathDirs(), o.cfg.MaxAttributeDepth)
	for _, prop := range o.cfg.PropertyList() {
		log.Debugf("property %s", prop)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:               "jolt",
		Short:             "Decode and inspect Java class files",
		SilenceUsage:      true,
		PersistentPreRunE: opts.setup,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to jolt.toml (default ./jolt.toml)")
	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&opts.logPath, "log", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newDumpCmd(opts))
	rootCmd.AddCommand(newFindCmd(opts))

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
