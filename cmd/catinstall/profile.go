package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kardianos/catinstall/inst"
)

func newProfileCommand(opts *options) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:           "profile",
		Short:         "Inspect the institution bundle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var format string
	exportCmd := &cobra.Command{
		Use:           "export",
		Short:         "Write the institution bundle to stdout",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadInstitution(opts.profile)
			if err != nil {
				return err
			}
			f := inst.Format(format)
			if f != inst.FormatYAML && f != inst.FormatCBOR {
				return fmt.Errorf("unknown format %q, want yaml or cbor", format)
			}
			data, err := inst.Encode(in, f)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	exportCmd.Example = `  # Convert the built-in bundle to the compact form
  catinstall profile export --format cbor > eduroam.cbor

  # Check a bundle file
  catinstall profile export --profile eduroam.cbor`
	exportCmd.Flags().StringVar(&format, "format", string(inst.FormatYAML), "Output format (yaml|cbor)")

	profileCmd.AddCommand(exportCmd)
	return profileCmd
}
