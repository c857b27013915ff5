package repository

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/slidesmith/backend/internal/model"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&model.Template{}, &model.Presentation{}, &model.Slide{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestTemplateRepository_CRUD(t *testing.T) {
	repo := NewTemplateRepository(setupDB(t))

	for _, title := range []string{"one", "two", "three"} {
		if err := repo.Create(&model.Template{Title: title, Slides: `[]`}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	page, err := repo.List(1, 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 1 || page[0].Title != "two" {
		t.Fatalf("List(1,1) expected [two], got %+v", page)
	}

	tpl, err := repo.Get(page[0].ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	tpl.Title = "renamed"
	if err := repo.Save(tpl); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, _ := repo.Get(tpl.ID)
	if got.Title != "renamed" {
		t.Errorf("expected renamed, got %s", got.Title)
	}

	if err := repo.Delete(tpl.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.Get(tpl.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(tpl.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPresentationRepository_SlidesOrderedAndCascade(t *testing.T) {
	db := setupDB(t)
	repo := NewPresentationRepository(db)
	slides := NewSlideRepository(db)

	p := &model.Presentation{
		Topic:  "Go",
		Title:  "Go in practice",
		Status: model.StatusReady,
		Slides: []model.Slide{
			{SlideNumber: 3, Title: "third"},
			{SlideNumber: 1, Title: "first"},
			{SlideNumber: 2, Title: "second"},
		},
	}
	if err := repo.Create(p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.Get(p.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Slides) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(got.Slides))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got.Slides[i].Title != want {
			t.Errorf("slide %d: expected %s, got %s", i, want, got.Slides[i].Title)
		}
	}

	if err := repo.Delete(p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	left, err := slides.GetByPresentation(p.ID)
	if err != nil {
		t.Fatalf("GetByPresentation failed: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("slides should be deleted with presentation, got %d", len(left))
	}
	if err := repo.Delete(p.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPresentationRepository_ListNewestFirst(t *testing.T) {
	db := setupDB(t)
	repo := NewPresentationRepository(db)
	base := time.Now()
	for i, topic := range []string{"old", "mid", "new"} {
		p := &model.Presentation{Topic: topic, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Create(p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	list, err := repo.List(0, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 || list[0].Topic != "new" || list[2].Topic != "old" {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestPresentationRepository_StatusAndReplaceSlides(t *testing.T) {
	db := setupDB(t)
	repo := NewPresentationRepository(db)

	p := &model.Presentation{Topic: "async", Status: model.StatusGenerating}
	if err := repo.Create(p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.ReplaceSlides(p.ID, []model.Slide{{SlideNumber: 1, Title: "a"}, {SlideNumber: 2, Title: "b"}}); err != nil {
		t.Fatalf("ReplaceSlides failed: %v", err)
	}
	if err := repo.ReplaceSlides(p.ID, []model.Slide{{SlideNumber: 1, Title: "only"}}); err != nil {
		t.Fatalf("ReplaceSlides failed: %v", err)
	}
	if err := repo.UpdateStatus(p.ID, model.StatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, _ := repo.Get(p.ID)
	if got.Status != model.StatusFailed || got.ErrorMsg != "boom" {
		t.Errorf("unexpected status %s/%s", got.Status, got.ErrorMsg)
	}
	if len(got.Slides) != 1 || got.Slides[0].Title != "only" {
		t.Errorf("unexpected slides %+v", got.Slides)
	}
	if err := repo.UpdateStatus(9999, model.StatusReady, ""); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTemplateRepository_GetByKey(t *testing.T) {
	repo := NewTemplateRepository(setupDB(t))
	if err := repo.Create(&model.Template{Key: "simple", Title: "Simple", Slides: `[]`}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, err := repo.GetByKey("simple")
	if err != nil {
		t.Fatalf("GetByKey failed: %v", err)
	}
	if got.Title != "Simple" {
		t.Errorf("unexpected template %+v", got)
	}
	if _, err := repo.GetByKey("absent"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPresentationRepository_FailStale(t *testing.T) {
	db := setupDB(t)
	repo := NewPresentationRepository(db)

	stuck := &model.Presentation{Topic: "stuck", Status: model.StatusGenerating}
	done := &model.Presentation{Topic: "done", Status: model.StatusReady}
	for _, p := range []*model.Presentation{stuck, done} {
		if err := repo.Create(p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	n, err := repo.FailStale(time.Now().Add(time.Minute), "interrupted")
	if err != nil {
		t.Fatalf("FailStale failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
	got, _ := repo.Get(stuck.ID)
	if got.Status != model.StatusFailed || got.ErrorMsg != "interrupted" {
		t.Errorf("unexpected status %s/%s", got.Status, got.ErrorMsg)
	}
	got, _ = repo.Get(done.ID)
	if got.Status != model.StatusReady {
		t.Errorf("ready presentation should be untouched, got %s", got.Status)
	}
}

func TestSlideRepository_GetSave(t *testing.T) {
	db := setupDB(t)
	repo := NewSlideRepository(db)
	if _, err := repo.Get(1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	s := &model.Slide{PresentationID: 1, SlideNumber: 1, Title: "x"}
	if err := repo.Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	s.Content = "- a\n- b"
	if err := repo.Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := repo.Get(s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Content != "- a\n- b" {
		t.Errorf("unexpected content %q", got.Content)
	}
}
