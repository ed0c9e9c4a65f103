package commands

import (
	"fmt"

	"github.com/GlueOps/glueops/certificate"
	"github.com/spf13/cobra"
)

// NewCertCommand returns the command to inspect certificates.
func NewCertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Inspect PEM certificates",
	}

	var file string
	serial := &cobra.Command{
		Use:   "serial",
		Short: "Print the serial number of a certificate as colon-separated hex",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			sn, err := certificate.SerialNumber(text)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sn)
			return err
		},
	}
	serial.Flags().StringVarP(&file, "file", "f", "-", "PEM file, or '-' for stdin")

	cmd.AddCommand(serial)
	return cmd
}
