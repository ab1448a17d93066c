package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CachedSlideshow - типизированное содержимое кэша slideshow_config
type CachedSlideshow struct {
	Slides      []Slide      `json:"slides"`
	Template    Template     `json:"template"`
	AudioTracks []AudioTrack `json:"audioTracks"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// ParseError возвращается, когда документ кэша не соответствует схеме.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse slideshow cache: %s", e.Reason)
	}
	return fmt.Sprintf("parse slideshow cache: %s: %s", e.Field, e.Reason)
}

type rawSlide struct {
	ID         *string `json:"id"`
	Kind       *string `json:"type"`
	Content    string  `json:"content"`
	URL        string  `json:"url"`
	Caption    string  `json:"caption"`
	Author     string  `json:"author"`
	Duration   *int    `json:"duration"`
	Transition string  `json:"transition"`
}

type rawCache struct {
	Slides      []rawSlide   `json:"slides"`
	Template    string       `json:"template"`
	AudioTracks []AudioTrack `json:"audioTracks"`
	CreatedAt   string       `json:"createdAt"`
}

// ParseSlideshowCache проверяет документ кэша и возвращает типизированное значение.
// Необязательные поля получают значения по умолчанию, обязательные - дают *ParseError.
func ParseSlideshowCache(data []byte) (CachedSlideshow, error) {
	var raw rawCache
	if err := json.Unmarshal(data, &raw); err != nil {
		return CachedSlideshow{}, &ParseError{Reason: err.Error()}
	}

	out := CachedSlideshow{
		Template:    TemplateClassic,
		AudioTracks: raw.AudioTracks,
		Slides:      make([]Slide, 0, len(raw.Slides)),
	}

	if raw.Template != "" {
		tpl := Template(raw.Template)
		if !tpl.IsKnown() {
			return CachedSlideshow{}, &ParseError{Field: "template", Reason: fmt.Sprintf("unknown template %q", raw.Template)}
		}
		out.Template = tpl
	}

	if raw.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw.CreatedAt)
		if err != nil {
			return CachedSlideshow{}, &ParseError{Field: "createdAt", Reason: err.Error()}
		}
		out.CreatedAt = ts
	}

	for i, rs := range raw.Slides {
		field := fmt.Sprintf("slides[%d]", i)

		if rs.ID == nil || *rs.ID == "" {
			return CachedSlideshow{}, &ParseError{Field: field + ".id", Reason: "required"}
		}

		kind := SlideKindImage
		if rs.Kind != nil {
			kind = SlideKind(*rs.Kind)
		}
		switch kind {
		case SlideKindImage, SlideKindVideo, SlideKindText, SlideKindTribute, SlideKindTimeline, SlideKindTitle:
		default:
			return CachedSlideshow{}, &ParseError{Field: field + ".type", Reason: fmt.Sprintf("unknown slide type %q", kind)}
		}

		duration := 0
		if rs.Duration != nil {
			if *rs.Duration < 0 {
				return CachedSlideshow{}, &ParseError{Field: field + ".duration", Reason: "must not be negative"}
			}
			duration = *rs.Duration
		}

		transition := Transition(rs.Transition)
		switch transition {
		case "", TransitionFade, TransitionSlide, TransitionZoom, TransitionKenBurns:
		default:
			return CachedSlideshow{}, &ParseError{Field: field + ".transition", Reason: fmt.Sprintf("unknown transition %q", transition)}
		}

		content := rs.Content
		if content == "" {
			content = rs.URL
		}

		out.Slides = append(out.Slides, Slide{
			ID:         *rs.ID,
			Kind:       kind,
			Content:    content,
			Caption:    rs.Caption,
			Author:     rs.Author,
			Duration:   duration,
			Transition: transition,
		})
	}

	return out, nil
}

// CacheOf превращает собранную конфигурацию в запись кэша.
func CacheOf(cfg SlideshowConfig) CachedSlideshow {
	return CachedSlideshow{
		Slides:      cfg.Slides,
		Template:    cfg.Template,
		AudioTracks: cfg.Music,
		CreatedAt:   cfg.CreatedAt,
	}
}

// Config восстанавливает конфигурацию из кэша, пересчитывая общую длительность.
func (c CachedSlideshow) Config(title string) SlideshowConfig {
	total := 0
	for _, s := range c.Slides {
		total += s.Duration
	}
	return SlideshowConfig{
		Title:         title,
		Slides:        c.Slides,
		Template:      c.Template,
		Music:         c.AudioTracks,
		TotalDuration: total,
		CreatedAt:     c.CreatedAt,
	}
}
