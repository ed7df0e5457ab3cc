package main

import (
	"github.com/spf13/cobra"

	"github.com/ryokun6/ryos-sub004/config"
)

func newRootCommand(newProvider providerFactory) *cobra.Command {
	ctx := newCommandContext(newProvider)

	rootCmd := &cobra.Command{
		Use:           "lyrics",
		Short:         "Annotate or translate song lyrics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.input, "input", "i", "", "Lyrics file (JSON lines array or LRC); stdin when empty")
	flags.BoolVar(&ctx.force, "force", false, "Ignore cached results")
	flags.StringVar(&ctx.cache, "cache", config.BackendMemory, "Cache store: memory or redis")
	flags.IntVar(&ctx.chunkSize, "chunk-size", 0, "Lines per model call (default CHUNK_SIZE or 15)")
	flags.IntVar(&ctx.maxParallel, "max-parallel", 0, "Concurrent model calls (default MAX_PARALLEL or 3)")
	flags.StringVar(&ctx.logLevel, "log-level", "warn", "Log level written to stderr")

	rootCmd.AddCommand(newFuriganaCommand(ctx))
	rootCmd.AddCommand(newTranslateCommand(ctx))

	return rootCmd
}
