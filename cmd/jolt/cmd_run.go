package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dhamidi/jolt/classfile"
	"github.com/dhamidi/jolt/loader"
	"github.com/spf13/cobra"
)

var errArchiveUnsupported = errors.New("archives are not supported")

type inputKind int

const (
	inputUnknown inputKind = iota
	inputClass
	inputArchive
)

// sniff classifies data by its leading magic number.
func sniff(data []byte) inputKind {
	if len(data) < 4 {
		return inputUnknown
	}
	switch binary.BigEndian.Uint32(data) {
	case classfile.Magic:
		return inputClass
	case 0x504B0304, 0x504B0506, 0x504B0708:
		return inputArchive
	default:
		return inputUnknown
	}
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [entry]",
		Short: "Load the entry class into a fresh registry",
		Long: `Load the entry class into a fresh registry.

The entry defaults to the entry key of jolt.toml, or Main.class.
Only plain class files are accepted; jar and zip archives are rejected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()

			entry := opts.cfg.EntryPath()
			if len(args) == 1 {
				entry = args[0]
			}
			if err := runEntry(opts, entry); err != nil {
				return err
			}

			elapsed := time.Since(start)
			fmt.Fprintf(cmd.OutOrStdout(), "Running time: %d.%03d sec\n",
				int64(elapsed/time.Second), (elapsed%time.Second).Milliseconds())
			return nil
		},
	}
	return cmd
}

func runEntry(opts *options, entry string) error {
	data, err := os.ReadFile(entry)
	if err != nil {
		return fmt.Errorf("read entry: %w", err)
	}

	switch sniff(data) {
	case inputClass:
		reg := loader.NewRegistry(loader.WithDecodeOptions(opts.cfg.DecodeOptions()...))
		if _, err := reg.Define(entry, data); err != nil {
			return err
		}
		return nil
	case inputArchive:
		return fmt.Errorf("%s: %w", entry, errArchiveUnsupported)
	default:
		return fmt.Errorf("%s: %w", entry, classfile.ErrInvalidMagic)
	}
}
