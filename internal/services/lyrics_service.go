package services

import (
	"context"
	"fmt"

	"github.com/ryokun6/ryos-sub004/internal/models"
	"github.com/ryokun6/ryos-sub004/internal/pipeline"
	"github.com/ryokun6/ryos-sub004/internal/transform"
	"github.com/ryokun6/ryos-sub004/internal/utils"
)

type (
	FuriganaReply    = pipeline.Reply[[]models.FuriganaSegment]
	TranslationReply = pipeline.Reply[string]
)

type LyricsService interface {
	// Furigana annotates lines. open is called only when the input is large
	// enough to stream; it may be nil to always answer synchronously.
	Furigana(ctx context.Context, in models.LyricsRequest, open pipeline.OpenFunc[[]models.FuriganaSegment]) (FuriganaReply, error)
	Translate(ctx context.Context, in models.LyricsRequest, open pipeline.OpenFunc[string]) (TranslationReply, error)
}

type lyricsService struct {
	furigana    *pipeline.Pipeline[[]models.FuriganaSegment]
	translation *pipeline.Pipeline[string]
	maxLines    int
}

func NewLyricsService(furigana *pipeline.Pipeline[[]models.FuriganaSegment], translation *pipeline.Pipeline[string], maxLines int) LyricsService {
	return &lyricsService{furigana: furigana, translation: translation, maxLines: maxLines}
}

func (s *lyricsService) Furigana(ctx context.Context, in models.LyricsRequest, open pipeline.OpenFunc[[]models.FuriganaSegment]) (FuriganaReply, error) {
	const op = "LyricsService.Furigana"

	if err := s.checkLines(op, in.Lines); err != nil {
		return FuriganaReply{}, err
	}

	return s.furigana.Execute(ctx, pipeline.Request{
		Items: toItems(in.Lines),
		Force: in.Force,
	}, open)
}

func (s *lyricsService) Translate(ctx context.Context, in models.LyricsRequest, open pipeline.OpenFunc[string]) (TranslationReply, error) {
	const op = "LyricsService.Translate"

	if err := s.checkLines(op, in.Lines); err != nil {
		return TranslationReply{}, err
	}
	tag, err := transform.ParseLanguage(in.TargetLanguage)
	if err != nil {
		return TranslationReply{}, utils.E(utils.CodeInvalidArgument, op, "targetLanguage must be a valid language tag", err)
	}

	return s.translation.Execute(ctx, pipeline.Request{
		Items:  toItems(in.Lines),
		Config: pipeline.Config{transform.ConfigTargetLanguage: tag},
		Force:  in.Force,
	}, open)
}

func (s *lyricsService) checkLines(op string, lines []models.LyricLine) error {
	if len(lines) == 0 {
		return utils.E(utils.CodeInvalidArgument, op, "lines are required", nil)
	}
	if s.maxLines > 0 && len(lines) > s.maxLines {
		return utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("too many lines (max %d)", s.maxLines), nil)
	}
	return nil
}

func toItems(lines []models.LyricLine) []pipeline.Item {
	items := make([]pipeline.Item, len(lines))
	for i, l := range lines {
		items[i] = pipeline.Item{Content: l.Words, OrderKey: l.StartTimeMs}
	}
	return items
}
