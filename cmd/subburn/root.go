package main

import (
	"os"

	"github.com/spf13/cobra"

	"subburn/internal/pkg/logger"
)

type commandContext struct {
	logLevel  string
	logFormat string
}

func (c *commandContext) logger(cmd *cobra.Command) *logger.Logger {
	return logger.New(logger.Config{
		Level:  c.logLevel,
		Format: c.logFormat,
		Output: cmd.ErrOrStderr(),
	})
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "subburn",
		Short:         "Turn WebVTT captions, a background image and narration into a video",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&ctx.logFormat, "log-format", envOr("LOG_FORMAT", "auto"), "Log format (auto, text, json)")

	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newRenderCommand(ctx))
	rootCmd.AddCommand(newStyleCommand())

	return rootCmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
