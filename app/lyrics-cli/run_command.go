package main

import (
	"github.com/spf13/cobra"

	"github.com/ryokun6/ryos-sub004/internal/models"
)

func newFuriganaCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "furigana",
		Short: "Add kana readings to lines containing kanji",
		Long: `Add kana readings to lines containing kanji.

Short inputs print one JSON document. Longer inputs print one JSON event per
line as chunks complete, followed by a "complete" or "error" event.

Examples:
  lyrics furigana -i song.lrc
  cat lines.json | lyrics furigana --cache redis`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := ctx.readInput(cmd)
			if err != nil {
				return err
			}
			svc, cleanup, err := ctx.service(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			req := models.LyricsRequest{Lines: lines, Force: ctx.force}
			reply, err := svc.Furigana(cmd.Context(), req, openNDJSON[[]models.FuriganaSegment](cmd))
			return finish(cmd, reply.Streamed, err, syncResult{Cached: reply.Cached, AnnotatedLines: reply.Result})
		},
	}
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate lines into another language",
		Long: `Translate lines into another language.

Examples:
  lyrics translate --to en -i song.lrc
  lyrics translate --to zh-Hant --force < lines.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := ctx.readInput(cmd)
			if err != nil {
				return err
			}
			svc, cleanup, err := ctx.service(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			req := models.LyricsRequest{Lines: lines, TargetLanguage: target, Force: ctx.force}
			reply, err := svc.Translate(cmd.Context(), req, openNDJSON[string](cmd))
			return finish(cmd, reply.Streamed, err, syncResult{Cached: reply.Cached, Translations: reply.Result})
		},
	}

	cmd.Flags().StringVar(&target, "to", "", "Target language tag, e.g. en or zh-Hant")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
