package commands

import (
	"fmt"

	"github.com/GlueOps/glueops/checksum"
	"github.com/spf13/cobra"
)

// NewChecksumCommand returns the command to compute string checksums.
func NewChecksumCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checksum",
		Short: "Compute checksums of strings",
	}

	for name, fn := range map[string]func(string) string{
		"crc32":  checksum.CRC32,
		"sha224": checksum.SHA224,
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   name + " STRING",
			Short: fmt.Sprintf("Print the %s checksum of STRING", name),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), fn(args[0]))
				return err
			},
		})
	}

	return cmd
}
