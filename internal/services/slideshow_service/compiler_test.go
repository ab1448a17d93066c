package services_test

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"memorial/internal/domain/models"
	services "memorial/internal/services/slideshow_service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func image(key string) models.MediaRecord {
	return models.MediaRecord{Key: "users/u/images/" + key, URL: "http://cdn/users/u/images/" + key, Kind: models.MediaKindImage}
}

func video(key string) models.MediaRecord {
	return models.MediaRecord{Key: "users/u/videos/" + key, URL: "http://cdn/users/u/videos/" + key, Kind: models.MediaKindVideo}
}

func slide(id string, kind models.SlideKind) models.Slide {
	return models.Slide{ID: id, Kind: kind, Duration: 1}
}

// mixedSlides содержит все типы слайдов вперемешку
func mixedSlides() []models.Slide {
	return []models.Slide{
		slide("t1", models.SlideKindTribute),
		slide("i1", models.SlideKindImage),
		slide("x1", models.SlideKindText),
		slide("v1", models.SlideKindVideo),
		slide("l1", models.SlideKindTimeline),
		slide("i2", models.SlideKindImage),
		slide("h1", models.SlideKindTitle),
		slide("t2", models.SlideKindTribute),
		slide("i3", models.SlideKindImage),
	}
}

func ids(slides []models.Slide) []string {
	out := make([]string, len(slides))
	for i, s := range slides {
		out[i] = s.ID
	}
	return out
}

func TestGenerateMediaSlides(t *testing.T) {
	records := []models.MediaRecord{
		image("a.jpg"),
		video("b.mp4"),
		{Key: "users/u/audios/c.mp3", URL: "http://cdn/c.mp3", Kind: models.MediaKindAudio},
	}
	records[0].Caption = "At the lake"

	slides := services.GenerateMediaSlides(records, map[string]string{records[0].Key: "sarah"})
	require.Len(t, slides, 2)

	assert.Equal(t, models.Slide{
		ID:         "media-0",
		Kind:       models.SlideKindImage,
		Content:    "http://cdn/users/u/images/a.jpg",
		Caption:    "At the lake",
		Author:     "sarah",
		Duration:   5,
		Transition: models.TransitionKenBurns,
	}, slides[0])

	assert.Equal(t, models.SlideKindVideo, slides[1].Kind)
	assert.Equal(t, 10, slides[1].Duration)
	assert.Equal(t, "media-1", slides[1].ID)

	assert.Empty(t, services.GenerateMediaSlides(nil, nil))
}

func TestGenerateTributeSlides(t *testing.T) {
	slides := services.GenerateTributeSlides([]models.Tribute{
		{Name: "Ann", Relationship: "sister", Memory: "She loved the sea"},
		{Name: "Bob", Memory: "Best mentor"},
	})
	require.Len(t, slides, 2)

	assert.Equal(t, "— Ann, sister", slides[0].Caption)
	assert.Equal(t, "— Bob", slides[1].Caption)
	assert.Equal(t, "Ann", slides[0].Author)
	assert.Equal(t, "She loved the sea", slides[0].Content)
	assert.Equal(t, 8, slides[0].Duration)
	assert.Equal(t, models.TransitionFade, slides[0].Transition)
	assert.Equal(t, "tribute-1", slides[1].ID)
}

func TestGenerateTimelineSlides(t *testing.T) {
	slides := services.GenerateTimelineSlides([]models.TimelineEvent{{Year: "1966", Title: "Born", Description: "Portland"}})
	require.Len(t, slides, 1)

	assert.Equal(t, "timeline-0", slides[0].ID)
	assert.Equal(t, "1966", slides[0].Content)
	assert.Equal(t, "Born\nPortland", slides[0].Caption)
	assert.Equal(t, 6, slides[0].Duration)
	assert.Equal(t, models.TransitionSlide, slides[0].Transition)
}

func TestTitleAndClosingSlides(t *testing.T) {
	title := services.GenerateTitleSlide("Rena", "Love Will Keep Us Together")
	assert.Equal(t, models.SlideKindTitle, title.Kind)
	assert.Equal(t, 5, title.Duration)

	closing := services.GenerateClosingSlide("Forever in Our Hearts", "1966 - 2024")
	assert.Equal(t, models.SlideKindText, closing.Kind)
	assert.Equal(t, 8, closing.Duration)
}

func TestOrderSlides_Classic(t *testing.T) {
	got := services.OrderSlides(mixedSlides(), models.TemplateClassic, nil)
	assert.Equal(t, []string{"h1", "l1", "i1", "i2", "i3", "v1", "t1", "t2", "x1"}, ids(got))
}

func TestOrderSlides_Cinematic(t *testing.T) {
	got := services.OrderSlides(mixedSlides(), models.TemplateCinematic, nil)
	assert.Equal(t, []string{"h1", "i1", "i2", "i3", "v1", "l1", "t1", "t2", "x1"}, ids(got))
}

func TestOrderSlides_Modern(t *testing.T) {
	got := services.OrderSlides(mixedSlides(), models.TemplateModern, nil)
	assert.Equal(t, []string{"h1", "i1", "t1", "v1", "t2", "i2", "i3", "l1", "x1"}, ids(got))
}

func TestOrderSlides_CollageDeterministicWithSeed(t *testing.T) {
	first := services.OrderSlides(mixedSlides(), models.TemplateCollage, rand.New(rand.NewSource(42)))
	second := services.OrderSlides(mixedSlides(), models.TemplateCollage, rand.New(rand.NewSource(42)))
	assert.Equal(t, ids(first), ids(second))

	// Титульный слайд в начале, финальный в конце
	assert.Equal(t, "h1", first[0].ID)
	assert.Equal(t, "x1", first[len(first)-1].ID)
	assert.ElementsMatch(t, ids(mixedSlides()), ids(first))
}

func TestOrderSlides_UnknownTemplateIsIdentity(t *testing.T) {
	got := services.OrderSlides(mixedSlides(), models.Template("retro"), nil)
	assert.Equal(t, ids(mixedSlides()), ids(got))
}

func TestOrderSlides_DoesNotMutateInput(t *testing.T) {
	in := mixedSlides()
	_ = services.OrderSlides(in, models.TemplateClassic, nil)
	_ = services.OrderSlides(in, models.TemplateCollage, rand.New(rand.NewSource(1)))
	assert.Equal(t, ids(mixedSlides()), ids(in))
}

func TestOrderSlides_StableForEqualTypes(t *testing.T) {
	in := make([]models.Slide, 0, 40)
	for i := 0; i < 20; i++ {
		in = append(in, slide(fmt.Sprintf("t%02d", i), models.SlideKindTribute))
		in = append(in, slide(fmt.Sprintf("i%02d", i), models.SlideKindImage))
	}

	for _, tpl := range []models.Template{models.TemplateClassic, models.TemplateCinematic} {
		got := ids(services.OrderSlides(in, tpl, nil))
		assert.True(t, sort.StringsAreSorted(got[:20]), tpl)
		assert.True(t, sort.StringsAreSorted(got[20:]), tpl)
	}
}

func TestOrderAndTransitions_PreserveIDs(t *testing.T) {
	templates := append([]models.Template{"unknown"}, models.Templates...)
	rng := rand.New(rand.NewSource(7))

	for _, tpl := range templates {
		got := services.ApplyTemplateTransitions(services.OrderSlides(mixedSlides(), tpl, rng), tpl)
		assert.ElementsMatch(t, ids(mixedSlides()), ids(got), tpl)
	}
}

func TestApplyTemplateTransitions(t *testing.T) {
	in := []models.Slide{
		{ID: "a", Kind: models.SlideKindImage, Transition: models.TransitionFade},
		{ID: "b", Kind: models.SlideKindVideo},
		{ID: "c", Kind: models.SlideKindTribute, Transition: models.TransitionZoom},
	}

	tests := []struct {
		template models.Template
		want     []models.Transition
	}{
		{models.TemplateClassic, []models.Transition{models.TransitionFade, models.TransitionFade, models.TransitionZoom}},
		{models.TemplateModern, []models.Transition{models.TransitionFade, models.TransitionSlide, models.TransitionZoom}},
		{models.TemplateCinematic, []models.Transition{models.TransitionKenBurns, models.TransitionZoom, models.TransitionZoom}},
		{models.TemplateCollage, []models.Transition{models.TransitionFade, models.TransitionSlide, models.TransitionZoom}},
		{"unknown", []models.Transition{models.TransitionFade, models.TransitionFade, models.TransitionZoom}},
	}

	for _, tt := range tests {
		t.Run(string(tt.template), func(t *testing.T) {
			got := services.ApplyTemplateTransitions(in, tt.template)
			for i, s := range got {
				assert.Equal(t, tt.want[i], s.Transition, s.ID)
			}
		})
	}

	assert.Empty(t, in[1].Transition)
}

func TestCompile_ClassicScenario(t *testing.T) {
	cfg := services.Compile(services.CompileInput{
		Media:    []models.MediaRecord{image("a.jpg"), image("b.jpg")},
		Tributes: []models.Tribute{{Name: "Ann", Memory: "Kind soul"}},
	}, models.TemplateClassic, services.WithClock(clock))

	require.Len(t, cfg.Slides, 3)
	assert.Equal(t, []models.SlideKind{models.SlideKindImage, models.SlideKindImage, models.SlideKindTribute},
		[]models.SlideKind{cfg.Slides[0].Kind, cfg.Slides[1].Kind, cfg.Slides[2].Kind})
	assert.Equal(t, 18, cfg.TotalDuration)
	assert.Equal(t, models.TemplateClassic, cfg.Template)
	assert.Equal(t, fixedNow, cfg.CreatedAt)
	assert.Equal(t, services.DefaultTitle, cfg.Title)
	assert.NotNil(t, cfg.Music)
}

func TestCompile_TotalDurationIsSum(t *testing.T) {
	in := services.CompileInput{
		Media:    []models.MediaRecord{image("a.jpg"), video("b.mp4"), image("c.jpg")},
		Tributes: []models.Tribute{{Name: "Ann"}, {Name: "Bob"}},
		Timeline: []models.TimelineEvent{{Year: "1966", Title: "Born"}},
	}

	for _, tpl := range models.Templates {
		cfg := services.Compile(in, tpl, services.WithRand(rand.New(rand.NewSource(3))), services.WithTitle("Rena"))

		sum := 0
		for _, s := range cfg.Slides {
			sum += s.Duration
		}
		assert.Equal(t, sum, cfg.TotalDuration, tpl)
		assert.Equal(t, 5+10+5+8+8+6, cfg.TotalDuration, tpl)
		assert.Equal(t, "Rena", cfg.Title)
	}
}

func TestCompile_DeterministicExceptCollage(t *testing.T) {
	in := services.CompileInput{
		Media:    []models.MediaRecord{image("a.jpg"), video("b.mp4")},
		Tributes: []models.Tribute{{Name: "Ann"}},
	}

	a := services.Compile(in, models.TemplateModern, services.WithClock(clock))
	b := services.Compile(in, models.TemplateModern, services.WithClock(clock))
	assert.Equal(t, a, b)

	c := services.Compile(in, models.TemplateCollage, services.WithClock(clock), services.WithRand(rand.New(rand.NewSource(9))))
	d := services.Compile(in, models.TemplateCollage, services.WithClock(clock), services.WithRand(rand.New(rand.NewSource(9))))
	assert.Equal(t, c, d)
}

func TestCompile_Empty(t *testing.T) {
	cfg := services.Compile(services.CompileInput{}, models.TemplateClassic)
	assert.Empty(t, cfg.Slides)
	assert.Equal(t, 0, cfg.TotalDuration)
}
