package services

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"memorial/internal/domain/models"
)

const (
	imageDuration    = 5
	videoDuration    = 10
	tributeDuration  = 8
	timelineDuration = 6
	titleDuration    = 5
	closingDuration  = 8
)

const DefaultTitle = "Celebration of Life"

// GenerateMediaSlides превращает загруженные файлы в слайды.
// Аудио не является материалом для слайдов и пропускается.
func GenerateMediaSlides(records []models.MediaRecord, authors map[string]string) []models.Slide {
	slides := make([]models.Slide, 0, len(records))

	for i, rec := range records {
		slide := models.Slide{
			ID:         fmt.Sprintf("media-%d", i),
			Kind:       models.SlideKindImage,
			Content:    rec.URL,
			Caption:    rec.Caption,
			Author:     authors[rec.Key],
			Duration:   imageDuration,
			Transition: models.TransitionKenBurns,
		}

		switch rec.Kind {
		case models.MediaKindVideo:
			slide.Kind = models.SlideKindVideo
			slide.Duration = videoDuration
		case models.MediaKindAudio:
			continue
		}

		slides = append(slides, slide)
	}

	return slides
}

func GenerateTributeSlides(tributes []models.Tribute) []models.Slide {
	slides := make([]models.Slide, 0, len(tributes))

	for i, t := range tributes {
		caption := "— " + t.Name
		if t.Relationship != "" {
			caption += ", " + t.Relationship
		}

		slides = append(slides, models.Slide{
			ID:         fmt.Sprintf("tribute-%d", i),
			Kind:       models.SlideKindTribute,
			Content:    t.Memory,
			Caption:    caption,
			Author:     t.Name,
			Duration:   tributeDuration,
			Transition: models.TransitionFade,
		})
	}

	return slides
}

func GenerateTimelineSlides(events []models.TimelineEvent) []models.Slide {
	slides := make([]models.Slide, 0, len(events))

	for i, e := range events {
		slides = append(slides, models.Slide{
			ID:         fmt.Sprintf("timeline-%d", i),
			Kind:       models.SlideKindTimeline,
			Content:    e.Year,
			Caption:    e.Title + "\n" + e.Description,
			Duration:   timelineDuration,
			Transition: models.TransitionSlide,
		})
	}

	return slides
}

// GenerateTitleSlide и GenerateClosingSlide не участвуют в Compile.
func GenerateTitleSlide(title, subtitle string) models.Slide {
	return models.Slide{
		ID:         "title-slide",
		Kind:       models.SlideKindTitle,
		Content:    title,
		Caption:    subtitle,
		Duration:   titleDuration,
		Transition: models.TransitionFade,
	}
}

func GenerateClosingSlide(text, caption string) models.Slide {
	return models.Slide{
		ID:         "closing-slide",
		Kind:       models.SlideKindText,
		Content:    text,
		Caption:    caption,
		Duration:   closingDuration,
		Transition: models.TransitionFade,
	}
}

var (
	classicPriority   = []models.SlideKind{models.SlideKindTitle, models.SlideKindTimeline, models.SlideKindImage, models.SlideKindVideo, models.SlideKindTribute, models.SlideKindText}
	cinematicPriority = []models.SlideKind{models.SlideKindTitle, models.SlideKindImage, models.SlideKindVideo, models.SlideKindTimeline, models.SlideKindTribute, models.SlideKindText}
)

func sortByPriority(slides []models.Slide, priority []models.SlideKind) {
	rank := func(k models.SlideKind) int {
		for i, p := range priority {
			if p == k {
				return i
			}
		}
		return len(priority)
	}

	sort.SliceStable(slides, func(i, j int) bool {
		return rank(slides[i].Kind) < rank(slides[j].Kind)
	})
}

// OrderSlides возвращает новый срез, упорядоченный по правилам шаблона.
// Входной срез не изменяется; для неизвестного шаблона порядок сохраняется.
// rng используется только шаблоном collage; nil означает источник по времени.
func OrderSlides(slides []models.Slide, template models.Template, rng *rand.Rand) []models.Slide {
	out := make([]models.Slide, len(slides))
	copy(out, slides)

	switch template {
	case models.TemplateClassic:
		sortByPriority(out, classicPriority)

	case models.TemplateCinematic:
		sortByPriority(out, cinematicPriority)

	case models.TemplateModern:
		var title, timeline, media, tributes, closing []models.Slide
		for _, s := range slides {
			switch s.Kind {
			case models.SlideKindTitle:
				title = append(title, s)
			case models.SlideKindTimeline:
				timeline = append(timeline, s)
			case models.SlideKindImage, models.SlideKindVideo:
				media = append(media, s)
			case models.SlideKindTribute:
				tributes = append(tributes, s)
			default:
				closing = append(closing, s)
			}
		}

		out = out[:0]
		out = append(out, title...)
		for i := 0; i < len(media) || i < len(tributes); i++ {
			if i < len(media) {
				out = append(out, media[i])
			}
			if i < len(tributes) {
				out = append(out, tributes[i])
			}
		}
		out = append(out, timeline...)
		out = append(out, closing...)

	case models.TemplateCollage:
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}

		var title, middle, closing []models.Slide
		for _, s := range slides {
			switch s.Kind {
			case models.SlideKindTitle:
				title = append(title, s)
			case models.SlideKindText:
				closing = append(closing, s)
			default:
				middle = append(middle, s)
			}
		}

		// Фишер-Йетс
		for i := len(middle) - 1; i > 0; i-- {
			j := rng.Intn(i + 1)
			middle[i], middle[j] = middle[j], middle[i]
		}

		out = out[:0]
		out = append(out, title...)
		out = append(out, middle...)
		out = append(out, closing...)
	}

	return out
}

var defaultTransitions = map[models.Template]models.Transition{
	models.TemplateClassic:   models.TransitionFade,
	models.TemplateModern:    models.TransitionSlide,
	models.TemplateCinematic: models.TransitionZoom,
	models.TemplateCollage:   models.TransitionSlide,
}

// ApplyTemplateTransitions заполняет пустые переходы значением шаблона.
// В шаблоне cinematic изображения всегда получают kenburns.
func ApplyTemplateTransitions(slides []models.Slide, template models.Template) []models.Slide {
	def, ok := defaultTransitions[template]
	if !ok {
		def = models.TransitionFade
	}

	out := make([]models.Slide, len(slides))
	for i, s := range slides {
		switch {
		case s.Kind == models.SlideKindImage && template == models.TemplateCinematic:
			s.Transition = models.TransitionKenBurns
		case s.Transition == "":
			s.Transition = def
		}
		out[i] = s
	}

	return out
}

// CompileInput - исходные данные для сборки слайдшоу
type CompileInput struct {
	Media    []models.MediaRecord
	Authors  map[string]string
	Tributes []models.Tribute
	Timeline []models.TimelineEvent
	Music    []models.AudioTrack
}

type compileOptions struct {
	rng   *rand.Rand
	now   func() time.Time
	title string
}

type Option func(*compileOptions)

// WithRand задает источник случайности для шаблона collage.
func WithRand(rng *rand.Rand) Option {
	return func(o *compileOptions) { o.rng = rng }
}

func WithClock(now func() time.Time) Option {
	return func(o *compileOptions) { o.now = now }
}

func WithTitle(title string) Option {
	return func(o *compileOptions) { o.title = title }
}

// Compile собирает конфигурацию слайдшоу из медиа, воспоминаний и хронологии.
// Титульный и финальный слайды не генерируются.
func Compile(in CompileInput, template models.Template, opts ...Option) models.SlideshowConfig {
	o := compileOptions{now: time.Now, title: DefaultTitle}
	for _, opt := range opts {
		opt(&o)
	}

	slides := make([]models.Slide, 0, len(in.Media)+len(in.Tributes)+len(in.Timeline))
	slides = append(slides, GenerateMediaSlides(in.Media, in.Authors)...)
	slides = append(slides, GenerateTributeSlides(in.Tributes)...)
	slides = append(slides, GenerateTimelineSlides(in.Timeline)...)

	final := ApplyTemplateTransitions(OrderSlides(slides, template, o.rng), template)

	total := 0
	for _, s := range final {
		total += s.Duration
	}

	music := in.Music
	if music == nil {
		music = []models.AudioTrack{}
	}

	return models.SlideshowConfig{
		Title:         o.title,
		Slides:        final,
		Template:      template,
		Music:         music,
		TotalDuration: total,
		CreatedAt:     o.now().UTC(),
	}
}
