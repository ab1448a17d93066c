package models

import "time"

type SlideKind string

const (
	SlideKindImage    SlideKind = "image"
	SlideKindVideo    SlideKind = "video"
	SlideKindText     SlideKind = "text"
	SlideKindTribute  SlideKind = "tribute"
	SlideKindTimeline SlideKind = "timeline"
	SlideKindTitle    SlideKind = "title"
)

type Transition string

const (
	TransitionFade     Transition = "fade"
	TransitionSlide    Transition = "slide"
	TransitionZoom     Transition = "zoom"
	TransitionKenBurns Transition = "kenburns"
)

type Template string

const (
	TemplateClassic   Template = "classic"
	TemplateModern    Template = "modern"
	TemplateCinematic Template = "cinematic"
	TemplateCollage   Template = "collage"
)

// Templates перечисляет известные шаблоны в порядке отображения
var Templates = []Template{TemplateClassic, TemplateModern, TemplateCinematic, TemplateCollage}

// IsKnown сообщает, является ли шаблон одним из поддерживаемых.
func (t Template) IsKnown() bool {
	for _, known := range Templates {
		if t == known {
			return true
		}
	}
	return false
}

// Slide - одна единица презентации
type Slide struct {
	ID         string     `json:"id"`
	Kind       SlideKind  `json:"type"`
	Content    string     `json:"content"`
	Caption    string     `json:"caption,omitempty"`
	Author     string     `json:"author,omitempty"`
	Duration   int        `json:"duration"`
	Transition Transition `json:"transition"`
}

type AudioTrack struct {
	URL    string  `json:"url"`
	Volume float64 `json:"volume"`
}

// SlideshowConfig собирается заново при каждом изменении исходных данных
type SlideshowConfig struct {
	Title         string       `json:"title"`
	Slides        []Slide      `json:"slides"`
	Template      Template     `json:"template"`
	Music         []AudioTrack `json:"music,omitempty"`
	TotalDuration int          `json:"totalDuration"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type SlideBreakdown struct {
	Photos   int `json:"photos"`
	Videos   int `json:"videos"`
	Tributes int `json:"tributes"`
	Timeline int `json:"timeline"`
	Text     int `json:"text"`
}

type SlideshowStats struct {
	TotalSlides       int            `json:"totalSlides"`
	TotalDuration     int            `json:"totalDuration"`
	DurationFormatted string         `json:"durationFormatted"`
	Breakdown         SlideBreakdown `json:"breakdown"`
	Contributors      int            `json:"contributors"`
}
