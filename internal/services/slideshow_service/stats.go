package services

import (
	"fmt"

	"memorial/internal/domain/models"
)

// Stats считает слайды по типам и число уникальных авторов.
func Stats(cfg models.SlideshowConfig) models.SlideshowStats {
	var b models.SlideBreakdown
	authors := make(map[string]struct{})

	for _, s := range cfg.Slides {
		switch s.Kind {
		case models.SlideKindImage:
			b.Photos++
		case models.SlideKindVideo:
			b.Videos++
		case models.SlideKindTribute:
			b.Tributes++
		case models.SlideKindTimeline:
			b.Timeline++
		default:
			b.Text++
		}

		if s.Author != "" {
			authors[s.Author] = struct{}{}
		}
	}

	return models.SlideshowStats{
		TotalSlides:       len(cfg.Slides),
		TotalDuration:     cfg.TotalDuration,
		DurationFormatted: FormatDuration(cfg.TotalDuration),
		Breakdown:         b,
		Contributors:      len(authors),
	}
}

// FormatDuration форматирует секунды как m:ss
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
