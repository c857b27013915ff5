package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/glebarez/sqlite"
	"github.com/slidesmith/backend/internal/deck/content"
	"github.com/slidesmith/backend/internal/deck/layout"
	"github.com/slidesmith/backend/internal/eventbus"
	imodel "github.com/slidesmith/backend/internal/model"
	"github.com/slidesmith/backend/internal/pkg/imagesearch"
	"github.com/slidesmith/backend/internal/repository"
	"github.com/slidesmith/backend/internal/service/orchestrator"
	"github.com/slidesmith/backend/internal/service/statemachine"
	"github.com/slidesmith/backend/internal/subscriber"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const outlineReply = "Sure, here it is:\n```json\n" + `{
  "title": "Go Concurrency",
  "slides": [
    {"slide_number": 1, "title": "Go Concurrency", "content": "Goroutines and channels", "layout": "title-slide", "image_query": "gopher"},
    {"slide_number": 2, "title": "Goroutines", "content": "- Cheap\n- Scheduled by runtime\n\nStart thousands of them.", "layout": "title-content", "image_query": "threads"},
    {"slide_number": 3, "title": "Channels", "content": "- Typed\n- Blocking", "layout": "title-content"}
  ]
}` + "\n```"

type fakeChat struct {
	mu     sync.Mutex
	reply  string
	err    error
	prompt []string
}

func (f *fakeChat) Complete(ctx context.Context, system, user string, opts ...model.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompt = append(f.prompt, user)
	return f.reply, f.err
}

func (f *fakeChat) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompt)
}

type fakeImages struct {
	queries map[int]string
	photos  map[int]*imagesearch.Photo
}

func (f *fakeImages) SearchAll(ctx context.Context, queries map[int]string) map[int]*imagesearch.Photo {
	f.queries = queries
	out := make(map[int]*imagesearch.Photo)
	for k := range queries {
		if p, ok := f.photos[k]; ok {
			out[k] = p
		}
	}
	return out
}

type fakeQueue struct {
	jobs      []*orchestrator.Job
	err       error
	cancelled []uint
}

func (f *fakeQueue) Enqueue(job *orchestrator.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) Cancel(id uint) bool {
	f.cancelled = append(f.cancelled, id)
	return false
}

type fixture struct {
	db            *gorm.DB
	templates     repository.TemplateRepository
	presentations repository.PresentationRepository
	slides        repository.SlideRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&imodel.Template{}, &imodel.Presentation{}, &imodel.Slide{}))
	return &fixture{
		db:            db,
		templates:     repository.NewTemplateRepository(db),
		presentations: repository.NewPresentationRepository(db),
		slides:        repository.NewSlideRepository(db),
	}
}

func (f *fixture) presentationService(chat ChatCompleter, images ImageSearcher, seed int64) *PresentationService {
	return NewPresentationService(f.presentations, f.templates, NewDrafter(chat), images, rand.New(rand.NewSource(seed)))
}

func TestParseOutline(t *testing.T) {
	outline, err := parseOutline(`noise {"slides":[{"title":"A","content":"x"},{"title":"","content":""},{"slide_number":7,"title":"B"}]} tail`)
	require.NoError(t, err)
	assert.Equal(t, "A", outline.Title, "title falls back to the first slide")
	require.Len(t, outline.Slides, 2)
	assert.Equal(t, 1, outline.Slides[0].SlideNumber)
	assert.Equal(t, 7, outline.Slides[1].SlideNumber)
	assert.Equal(t, "title-content", outline.Slides[0].Layout)

	_, err = parseOutline("I cannot help with that")
	assert.ErrorIs(t, err, content.ErrBadInput)

	_, err = parseOutline(`{"title":"x","slides":[]}`)
	assert.ErrorIs(t, err, content.ErrBadInput)
}

func TestOutlineImageQueriesSkipTitleSlide(t *testing.T) {
	outline, err := parseOutline(outlineReply)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{2: "threads", 3: "Channels"}, outline.imageQueries())
}

func TestCreatePresentation(t *testing.T) {
	f := setup(t)
	chat := &fakeChat{reply: outlineReply}
	images := &fakeImages{photos: map[int]*imagesearch.Photo{
		2: {URL: "https://img/threads", Alt: "spools of thread"},
	}}
	svc := f.presentationService(chat, images, 42)

	dto, err := svc.Create(context.Background(), CreatePresentationRequest{Topic: "Go concurrency", Style: "DARK"})
	require.NoError(t, err)
	assert.Equal(t, imodel.StatusReady, dto.Status)
	assert.Equal(t, "Go Concurrency", dto.Title)
	assert.Equal(t, "dark", dto.Style)
	assert.Equal(t, 3, dto.SlidesCount)
	assert.Len(t, dto.LayoutOrder, len(layout.Kinds))
	assert.Contains(t, chat.prompt[0], `"Go concurrency" with 5 slides`)

	stored, err := f.presentations.Get(dto.ID)
	require.NoError(t, err)
	require.Len(t, stored.Slides, 3)
	assert.Equal(t, imodel.TitleSlideLayout, stored.Slides[0].Layout)
	assert.Empty(t, stored.Slides[0].ImageURL)
	assert.Equal(t, "https://img/threads", stored.Slides[1].ImageURL)
	assert.Equal(t, "spools of thread", stored.Slides[1].ImageAlt)
	assert.Empty(t, stored.Slides[2].ImageURL)
}

func TestLayoutOrderFollowsRandomSource(t *testing.T) {
	f := setup(t)
	a := f.presentationService(&fakeChat{reply: outlineReply}, nil, 7)
	b := f.presentationService(&fakeChat{reply: outlineReply}, nil, 7)

	pa, err := a.Create(context.Background(), CreatePresentationRequest{Topic: "x"})
	require.NoError(t, err)
	pb, err := b.Create(context.Background(), CreatePresentationRequest{Topic: "y"})
	require.NoError(t, err)
	assert.Equal(t, pa.LayoutOrder, pb.LayoutOrder)

	want := layout.Shuffle(rand.New(rand.NewSource(7)))
	for i, k := range want {
		assert.Equal(t, string(k), pa.LayoutOrder[i])
	}
}

func TestCreatePresentationDraftFailure(t *testing.T) {
	f := setup(t)
	svc := f.presentationService(&fakeChat{reply: "not json"}, nil, 1)
	_, err := svc.Create(context.Background(), CreatePresentationRequest{Topic: "x"})
	assert.ErrorIs(t, err, content.ErrBadInput)

	list, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list, "nothing is stored when drafting fails")
}

func TestCreatePresentationFromTemplate(t *testing.T) {
	f := setup(t)
	require.NoError(t, InitDefaultTemplates(f.db))
	require.NoError(t, InitDefaultTemplates(f.db), "seeding twice is a no-op")
	tpl, err := f.templates.GetByKey("simple_business_presentation")
	require.NoError(t, err)

	chat := &fakeChat{err: errors.New("must not be called")}
	images := &fakeImages{photos: map[int]*imagesearch.Photo{2: {URL: "https://img/meeting", Alt: "meeting"}}}
	svc := f.presentationService(chat, images, 1)

	dto, err := svc.Create(context.Background(), CreatePresentationRequest{Topic: "Q3", TemplateID: &tpl.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, chat.calls())
	assert.Equal(t, "Simple Business Presentation", dto.Title)
	assert.Equal(t, map[int]string{2: "business meeting"}, images.queries)

	require.Len(t, dto.Slides, 3)
	assert.Equal(t, imodel.TitleSlideLayout, dto.Slides[0].Layout)
	assert.Equal(t, "A simple overview", dto.Slides[0].Content)
	assert.Equal(t, "- Market overview\n- Key results\n- Next steps\n\nThis is the main content of the presentation.", dto.Slides[1].Content)
	assert.Equal(t, "https://img/meeting", dto.Slides[1].ImageURL)
	assert.Equal(t, "Team at work", dto.Slides[1].ImageAlt, "template alt text wins over the search result")
	assert.Equal(t, "Conclusion", dto.Slides[2].Title)

	missing := uint(999)
	_, err = svc.Create(context.Background(), CreatePresentationRequest{Topic: "Q3", TemplateID: &missing})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestCreateAsyncAndGenerate(t *testing.T) {
	f := setup(t)
	svc := f.presentationService(&fakeChat{reply: outlineReply}, nil, 1)

	_, err := svc.CreateAsync(context.Background(), CreatePresentationRequest{Topic: "x"})
	assert.ErrorIs(t, err, ErrAsyncUnavailable)

	queue := &fakeQueue{}
	svc.SetQueue(queue)
	dto, err := svc.CreateAsync(context.Background(), CreatePresentationRequest{Topic: "Go", SlidesCount: 3})
	require.NoError(t, err)
	assert.Equal(t, imodel.StatusGenerating, dto.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, dto.ID, queue.jobs[0].PresentationID)

	require.NoError(t, svc.Generate(context.Background(), dto.ID))
	got, err := svc.Get(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, imodel.StatusReady, got.Status)
	assert.Equal(t, "Go Concurrency", got.Title)
	assert.Len(t, got.Slides, 3)

	assert.ErrorIs(t, svc.Generate(context.Background(), 9999), ErrPresentationNotFound)
}

func TestGenerateFailureMarksPresentation(t *testing.T) {
	f := setup(t)
	svc := f.presentationService(&fakeChat{err: errors.New("quota exceeded")}, nil, 1)
	svc.SetQueue(&fakeQueue{})

	dto, err := svc.CreateAsync(context.Background(), CreatePresentationRequest{Topic: "x"})
	require.NoError(t, err)
	require.Error(t, svc.Generate(context.Background(), dto.ID))

	got, err := svc.Get(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, imodel.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMsg, "quota exceeded")
}

func TestCreateAsyncQueueFull(t *testing.T) {
	f := setup(t)
	svc := f.presentationService(&fakeChat{reply: outlineReply}, nil, 1)
	svc.SetQueue(&fakeQueue{err: orchestrator.ErrQueueFull})

	_, err := svc.CreateAsync(context.Background(), CreatePresentationRequest{Topic: "x"})
	assert.ErrorIs(t, err, orchestrator.ErrQueueFull)

	list, err := svc.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, imodel.StatusFailed, list[0].Status)
}

func TestDeletePresentationCancelsJob(t *testing.T) {
	f := setup(t)
	svc := f.presentationService(&fakeChat{reply: outlineReply}, nil, 1)
	queue := &fakeQueue{}
	svc.SetQueue(queue)

	dto, err := svc.Create(context.Background(), CreatePresentationRequest{Topic: "x"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), dto.ID))
	assert.Equal(t, []uint{dto.ID}, queue.cancelled)
	assert.ErrorIs(t, svc.Delete(context.Background(), dto.ID), ErrPresentationNotFound)

	left, err := f.slides.GetByPresentation(dto.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDeletePresentationPublishesEvent(t *testing.T) {
	f := setup(t)
	svc := f.presentationService(&fakeChat{reply: outlineReply}, nil, 1)
	queue := &fakeQueue{}
	svc.SetQueue(queue)
	bus := eventbus.NewPresentationEventBus()
	subscriber.NewPresentationEventSubscriber(queue).Register(bus)
	svc.SetEventBus(bus)

	var seen []eventbus.PresentationEventType
	for _, typ := range []eventbus.PresentationEventType{
		eventbus.PresentationEventCreated,
		eventbus.PresentationEventReady,
		eventbus.PresentationEventDeleted,
	} {
		bus.Subscribe(typ, func(ctx context.Context, event eventbus.PresentationEvent) error {
			seen = append(seen, event.Type)
			return nil
		})
	}

	dto, err := svc.CreateAsync(context.Background(), CreatePresentationRequest{Topic: "Go", SlidesCount: 3})
	require.NoError(t, err)
	require.NoError(t, svc.Generate(context.Background(), dto.ID))
	require.NoError(t, svc.Delete(context.Background(), dto.ID))

	assert.Equal(t, []uint{dto.ID}, queue.cancelled)
	assert.Equal(t, []eventbus.PresentationEventType{
		eventbus.PresentationEventCreated,
		eventbus.PresentationEventReady,
		eventbus.PresentationEventDeleted,
	}, seen)
}

func TestGenerateRejectsFinishedPresentation(t *testing.T) {
	f := setup(t)
	chat := &fakeChat{reply: outlineReply}
	svc := f.presentationService(chat, nil, 1)

	dto, err := svc.Create(context.Background(), CreatePresentationRequest{Topic: "Go", SlidesCount: 3})
	require.NoError(t, err)
	calls := chat.calls()

	var invalid *statemachine.InvalidStateTransitionError
	assert.ErrorAs(t, svc.Generate(context.Background(), dto.ID), &invalid)
	assert.Equal(t, calls, chat.calls())

	got, err := svc.Get(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, imodel.StatusReady, got.Status)
}

func TestGenerateSkipsPresentationFailedMeanwhile(t *testing.T) {
	f := setup(t)
	svc := f.presentationService(&fakeChat{reply: outlineReply}, nil, 1)
	svc.SetQueue(&fakeQueue{})

	dto, err := svc.CreateAsync(context.Background(), CreatePresentationRequest{Topic: "Go", SlidesCount: 3})
	require.NoError(t, err)
	svc.images = imagesFunc(func() {
		require.NoError(t, f.presentations.UpdateStatus(dto.ID, imodel.StatusFailed, "generation interrupted"))
	})

	var invalid *statemachine.InvalidStateTransitionError
	assert.ErrorAs(t, svc.Generate(context.Background(), dto.ID), &invalid)

	got, err := svc.Get(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, imodel.StatusFailed, got.Status)
	assert.Empty(t, got.Slides)
}

// imagesFunc 在搜索图片时执行回调，用于模拟生成期间的状态变化
type imagesFunc func()

func (f imagesFunc) SearchAll(ctx context.Context, queries map[int]string) map[int]*imagesearch.Photo {
	f()
	return nil
}

func TestSlideUpdateAndImprove(t *testing.T) {
	f := setup(t)
	p := &imodel.Presentation{Topic: "x", Slides: []imodel.Slide{{SlideNumber: 1, Title: "Old", Content: "- a"}}}
	require.NoError(t, f.presentations.Create(p))
	id := p.Slides[0].ID

	chat := &fakeChat{reply: "Here you go:\n```markdown\n- sharper point\n- another\n```"}
	svc := NewSlideService(f.slides, NewDrafter(chat))

	title := "New"
	dto, err := svc.Update(context.Background(), id, UpdateSlideRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New", dto.Title)
	assert.Equal(t, "- a", dto.Content, "omitted fields stay unchanged")

	bad := "sidebar"
	_, err = svc.Update(context.Background(), id, UpdateSlideRequest{Layout: &bad})
	assert.ErrorIs(t, err, ErrInvalidLayout)

	dto, err = svc.Improve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "- sharper point\n- another", dto.Content)
	assert.True(t, strings.Contains(chat.prompt[0], "Title: New"))

	stored, err := f.slides.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "- sharper point\n- another", stored.Content)

	_, err = svc.Update(context.Background(), 9999, UpdateSlideRequest{})
	assert.ErrorIs(t, err, ErrSlideNotFound)
}
