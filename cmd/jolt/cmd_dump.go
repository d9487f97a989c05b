package main

import (
	"fmt"
	"strings"

	"github.com/dhamidi/jolt/classfile"
	"github.com/dhamidi/jolt/format"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newDumpCmd(opts *options) *cobra.Command {
	var dumpFormat string

	cmd := &cobra.Command{
		Use:   "dump <file.class>...",
		Short: "Decode class files and print a summary of each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := format.New(dumpFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			classes, err := parseAll(opts, args)
			if err != nil {
				return err
			}
			for i, cf := range classes {
				if err := enc.Encode(cf); err != nil {
					return fmt.Errorf("encode %s: %w", args[i], err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line", "output format ("+strings.Join(format.Names, ", ")+")")

	return cmd
}

// parseAll reads and decodes every file concurrently and returns the classes
// in argument order. Each file is decoded on its own, so two files with the
// same base name each print their own class.
func parseAll(opts *options, paths []string) ([]*classfile.ClassFile, error) {
	decodeOpts := opts.cfg.DecodeOptions()
	classes := make([]*classfile.ClassFile, len(paths))

	var g errgroup.Group
	g.SetLimit(8)
	for i, path := range paths {
		g.Go(func() error {
			cf, err := classfile.ParseFile(path, decodeOpts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			classes[i] = cf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return classes, nil
}
