package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subburn/internal/subtitle"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var style styleFlags

	cmd := &cobra.Command{
		Use:   "convert <in.vtt> <out.ass>",
		Short: "Convert WebVTT captions into a styled ASS document",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("provide the WebVTT source and the ASS destination. Example: subburn convert talk.vtt talk.ass")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := style.resolve(cmd)
			if err != nil {
				return err
			}

			stats, err := subtitle.TranscodeFile(args[0], args[1], st)
			if err != nil {
				return err
			}

			ctx.logger(cmd).Debug("captions converted",
				"source", args[0],
				"destination", args[1],
				"cues", stats.Cues,
				"dropped", stats.Dropped,
			)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d dialogue lines (%d empty cues dropped), last cue ends at %s\n",
				args[1], stats.Dialogues, stats.Dropped, stats.LastEnd)
			return nil
		},
	}

	style.register(cmd)
	return cmd
}
