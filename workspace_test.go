package redline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type stubSource struct {
	resp *GenerateResponse
	err  error
	reqs []GenerateRequest
}

func (s *stubSource) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	s.reqs = append(s.reqs, req)
	return s.resp, s.err
}

type failingStore struct{ *mapStore }

func (f *failingStore) Set(context.Context, string, *UnitState) error {
	return errors.New("store unavailable")
}

func newTestWorkspace(opts ...Option) *Workspace {
	opts = append([]Option{WithLogger(quietLogger()), WithIDGenerator(sequentialIDs())}, opts...)
	return NewWorkspace(opts...)
}

func TestWorkspace_UnitsAreIndependent(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace()

	page1 := Document{{Text: "first page\n"}}
	page2 := Document{bold("Title"), plain(" second page\n")}

	s1, err := w.Open(ctx, "page-1", page1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s1.ApplyExternalContent(ctx, "first edited page"); err != nil {
		t.Fatal(err)
	}
	marked := s1.Document()

	s2, err := w.Open(ctx, "page-2", page2)
	if err != nil {
		t.Fatal(err)
	}
	if s2.HasPendingEdits() || !s2.Editable() {
		t.Error("Expected page-2 to start clean")
	}
	if err := s2.ToggleMark(ctx, AttrItalic, 6, 12); err != nil {
		t.Fatal(err)
	}
	page2Edited := s2.Document()

	back, err := w.Open(ctx, "page-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if back.State() != StatePending || !back.HasPendingEdits() {
		t.Errorf("Expected page-1 pending state restored, got %s", back.State())
	}
	if diff := cmp.Diff(marked, back.Document()); diff != "" {
		t.Errorf("page-1 document mismatch (-want +got):\n%s", diff)
	}
	if err := back.Discard(ctx); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(page1, back.Document()); diff != "" {
		t.Errorf("page-1 discard mismatch (-want +got):\n%s", diff)
	}

	again, err := w.Open(ctx, "page-2", nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(page2Edited, again.Document()); diff != "" {
		t.Errorf("page-2 document mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkspace_OpenSameUnitReturnsActive(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace()

	a, _ := w.Open(ctx, "u", Document{{Text: "x\n"}})
	b, _ := w.Open(ctx, "u", Document{{Text: "ignored\n"}})
	if a != b {
		t.Error("Expected the active session to be returned")
	}
	if w.Active() != a {
		t.Error("Expected Active() to return the open session")
	}
}

func TestWorkspace_Generate(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(WithAuthor("mock-llm"))

	if _, err := w.Generate(ctx, &stubSource{}); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Expected ErrNoDocument without an active unit, got %v", err)
	}

	if _, err := w.Open(ctx, "form", formDoc()); err != nil {
		t.Fatal(err)
	}

	src := &stubSource{resp: &GenerateResponse{Suggestions: []Suggestion{
		{TextToReplace: "Alice", TextReplacement: "Bob"},
		{TextToReplace: "nowhere", TextReplacement: "x"},
	}}}
	res, err := w.Generate(ctx, src)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(res.Batch.Applied) != 1 || len(res.Batch.Failed) != 1 {
		t.Errorf("unexpected batch: %+v", res.Batch)
	}
	if res.Batch.Applied[0].Author != "mock-llm" {
		t.Errorf("Expected configured author, got %q", res.Batch.Applied[0].Author)
	}

	req := src.reqs[0]
	if req.Unit != "form" || req.Text != "Name Alice Smith\nAge 30\n" || len(req.Sections) != 2 {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestWorkspace_GenerateContent(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace()
	if _, err := w.Open(ctx, "p", Document{{Text: "The quick fox jumps.\n"}}); err != nil {
		t.Fatal(err)
	}

	res, err := w.Generate(ctx, &stubSource{resp: &GenerateResponse{Content: "The quick brown fox leaps."}})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Edit == nil || res.Edit.Kind != EditExternal {
		t.Errorf("Expected external edit, got %+v", res.Edit)
	}
	if !w.Active().HasPendingEdits() {
		t.Error("Expected pending edits")
	}
}

func TestWorkspace_GenerateSourceError(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace()
	if _, err := w.Open(ctx, "p", Document{{Text: "text\n"}}); err != nil {
		t.Fatal(err)
	}

	cause := errors.New("quota exceeded")
	_, err := w.Generate(ctx, &stubSource{err: cause})

	var se *SourceError
	if !errors.As(err, &se) || !errors.Is(err, cause) {
		t.Errorf("Expected SourceError wrapping cause, got %v", err)
	}
}

func TestWorkspace_StoreFailure(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(WithStore(&failingStore{mapStore: newMapStore()}))

	if _, err := w.Open(ctx, "a", Document{{Text: "a\n"}}); err != nil {
		t.Fatal(err)
	}
	_, err := w.Open(ctx, "b", Document{{Text: "b\n"}})

	var se *StoreError
	if !errors.As(err, &se) || se.Unit != "a" {
		t.Errorf("Expected StoreError for unit a, got %v", err)
	}
	if w.Active().Unit() != "a" {
		t.Error("Expected active unit unchanged after a failed switch")
	}
}

func TestWorkspace_ForgetAndValidate(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(WithLimits(Limits{Min: 1, Max: 100}))

	if _, err := w.Validate(); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Expected ErrNoDocument, got %v", err)
	}

	if _, err := w.Open(ctx, "a", formDoc()); err != nil {
		t.Fatal(err)
	}
	res, err := w.Validate()
	if err != nil || !res.Valid {
		t.Errorf("Expected valid sections, got %+v %v", res, err)
	}

	if err := w.Forget(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if w.Active() != nil {
		t.Error("Expected no active unit after forgetting it")
	}
	s, err := w.Open(ctx, "a", Document{{Text: "fresh\n"}})
	if err != nil {
		t.Fatal(err)
	}
	if s.PlainText() != "fresh\n" {
		t.Errorf("Expected a fresh session, got %q", s.PlainText())
	}
}

func TestWorkspace_WithConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Style = StylePink
	cfg.ProtectedAttributes = []string{}

	w := newTestWorkspace(WithConfig(cfg))
	s, err := w.Open(context.Background(), "a", formDoc())
	if err != nil {
		t.Fatal(err)
	}
	if s.Style() != StylePink {
		t.Errorf("Expected pink style from config, got %s", s.Style())
	}
	if _, err := s.ApplySuggestion(context.Background(), Suggestion{TextToReplace: "Name", TextReplacement: "Full name"}); err != nil {
		t.Errorf("Expected no protected attributes from config, got %v", err)
	}
}

func TestWorkspace_ConcurrentUse(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace()
	src := &stubSource{resp: &GenerateResponse{Content: "Name Alice Jones\nAge 30\n"}}

	var wg sync.WaitGroup
	errs := make(chan error, 8*20*3)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				unit := fmt.Sprintf("page-%d", (g+i)%3)
				if _, err := w.Open(ctx, unit, formDoc()); err != nil {
					errs <- err
					continue
				}
				if _, err := w.Generate(ctx, src); err != nil {
					errs <- err
				}
				if _, err := w.Validate(); err != nil {
					errs <- err
				}
				if err := w.Save(ctx); err != nil {
					errs <- err
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		s, err := w.Open(ctx, fmt.Sprintf("page-%d", i), nil)
		if err != nil {
			t.Fatal(err)
		}
		if got := s.Document().TextWithout(MarkInsert); got != "Name Alice Smith\nAge 30\n" {
			t.Errorf("unit %d: original text lost, got %q", i, got)
		}
	}
}
