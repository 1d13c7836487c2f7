// Package cli implements the pqcrypt command-line driver, which writes
// and reads the canonical Parquet Modular Encryption interop test files
// used to exercise the footer, column, and page encryption paths.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the pqcrypt root command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pqcrypt",
		Short: "Parquet Modular Encryption interop test driver",
		Long: `pqcrypt writes and reads the canonical encrypted interop test
files, exercising footer encryption, column-level selective encryption,
and page-level AEAD framing against a fixed four-column dataset.`,
	}

	root.AddCommand(NewWriteCommand(), NewReadCommand())
	return root
}
