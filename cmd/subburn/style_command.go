package main

import (
	"github.com/spf13/cobra"

	"subburn/internal/subtitle"
)

func newStyleCommand() *cobra.Command {
	var style styleFlags

	cmd := &cobra.Command{
		Use:   "style",
		Short: "Print the effective caption style as a TOML preset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := style.resolve(cmd)
			if err != nil {
				return err
			}
			out, err := subtitle.EncodeTOML(st)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	style.register(cmd)
	return cmd
}
