package main

import (
	"errors"
	"fmt"

	"github.com/dhamidi/jolt/format"
	"github.com/dhamidi/jolt/loader"
	"github.com/spf13/cobra"
)

func newFindCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <name>",
		Short: "Look a class up on the configured classpath",
		Long: `Look a class up on the configured classpath.

The name is a binary class name such as com/example/Main. Each classpath
directory from jolt.toml is searched in order for <dir>/<name>.class.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := loader.NewRegistry(
				loader.WithSource(loader.NewDirSource(opts.cfg.ClasspathDirs()...)),
				loader.WithDecodeOptions(opts.cfg.DecodeOptions()...),
			)
			cf, err := reg.Find(args[0])
			if errors.Is(err, loader.ErrClassNotFound) {
				return fmt.Errorf("%s: not found on classpath %v", args[0], opts.cfg.Classpath)
			}
			if err != nil {
				return err
			}
			return format.NewLineEncoder(cmd.OutOrStdout()).Encode(cf)
		},
	}
	return cmd
}
