package store

import (
	"errors"
	"sync"
	"testing"
)

func testPattern(id string) *Pattern {
	return &Pattern{
		ID:         id,
		Title:      "Retry with backoff",
		Content:    "Wrap transient failures in exponential backoff before surfacing them.",
		Type:       TypeSolution,
		Confidence: 0.8,
		Namespaces: []string{"workspace.app.resilience"},
	}
}

func TestCreatePattern(t *testing.T) {
	db := testDB(t)

	p := testPattern("p1")
	p.Metadata = map[string]any{"language": "go"}
	if err := db.CreatePattern(p); err != nil {
		t.Fatalf("CreatePattern: %v", err)
	}

	if p.CreatedAt == 0 {
		t.Error("expected created_at to be set")
	}
	if p.AccessCount != 0 {
		t.Errorf("access_count = %d, want 0", p.AccessCount)
	}
	if p.LastAccessed < p.CreatedAt {
		t.Error("last_accessed before created_at")
	}
}

func TestCreatePatternDuplicateID(t *testing.T) {
	db := testDB(t)

	if err := db.CreatePattern(testPattern("p1")); err != nil {
		t.Fatalf("CreatePattern: %v", err)
	}
	err := db.CreatePattern(testPattern("p1"))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("duplicate error = %v, want ErrDuplicateID", err)
	}

	n, err := db.CountPatterns()
	if err != nil {
		t.Fatalf("CountPatterns: %v", err)
	}
	if n != 1 {
		t.Errorf("pattern count after duplicate = %d, want 1", n)
	}
}

func TestCreatePatternValidation(t *testing.T) {
	db := testDB(t)

	cases := []struct {
		name   string
		mutate func(*Pattern)
	}{
		{"empty id", func(p *Pattern) { p.ID = "" }},
		{"empty title", func(p *Pattern) { p.Title = "" }},
		{"bad type", func(p *Pattern) { p.Type = "habit" }},
		{"confidence high", func(p *Pattern) { p.Confidence = 1.1 }},
		{"confidence low", func(p *Pattern) { p.Confidence = -0.1 }},
		{"bad scope", func(p *Pattern) { p.Scope = "universal" }},
		{"no namespaces", func(p *Pattern) { p.Namespaces = nil }},
		{"blank namespace", func(p *Pattern) { p.Namespaces = []string{"  "} }},
	}

	for _, c := range cases {
		p := testPattern("bad")
		c.mutate(p)
		err := db.CreatePattern(p)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: error = %v, want *ValidationError", c.name, err)
		}
	}

	// Rejections never mutate storage.
	n, _ := db.CountPatterns()
	if n != 0 {
		t.Errorf("pattern count after rejections = %d, want 0", n)
	}
}

func TestGetPatternTracksAccess(t *testing.T) {
	db := testDB(t)

	if err := db.CreatePattern(testPattern("p1")); err != nil {
		t.Fatalf("CreatePattern: %v", err)
	}

	got, err := db.GetPattern("p1")
	if err != nil {
		t.Fatalf("GetPattern: %v", err)
	}
	if got == nil {
		t.Fatal("expected pattern, got nil")
	}
	if got.AccessCount != 1 {
		t.Errorf("access_count = %d, want 1", got.AccessCount)
	}
	if got.LastAccessed < got.CreatedAt {
		t.Error("last_accessed before created_at")
	}

	got, err = db.GetPattern("p1")
	if err != nil {
		t.Fatalf("GetPattern: %v", err)
	}
	if got.AccessCount != 2 {
		t.Errorf("access_count after second get = %d, want 2", got.AccessCount)
	}
}

func TestGetPatternMissing(t *testing.T) {
	db := testDB(t)

	got, err := db.GetPattern("nope")
	if err != nil {
		t.Fatalf("GetPattern: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing pattern")
	}
}

func TestGetPatternConcurrentIncrements(t *testing.T) {
	db := testDB(t)

	if err := db.CreatePattern(testPattern("p1")); err != nil {
		t.Fatalf("CreatePattern: %v", err)
	}

	const readers = 20
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := db.GetPattern("p1"); err != nil {
				t.Errorf("GetPattern: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := db.PeekPattern("p1")
	if err != nil {
		t.Fatalf("PeekPattern: %v", err)
	}
	if p.AccessCount != readers {
		t.Errorf("access_count = %d, want %d (lost increments)", p.AccessCount, readers)
	}
}

func TestPeekPatternDoesNotTrack(t *testing.T) {
	db := testDB(t)

	if err := db.CreatePattern(testPattern("p1")); err != nil {
		t.Fatalf("CreatePattern: %v", err)
	}

	p, err := db.PeekPattern("p1")
	if err != nil {
		t.Fatalf("PeekPattern: %v", err)
	}
	if p.AccessCount != 0 {
		t.Errorf("access_count after peek = %d, want 0", p.AccessCount)
	}
	if len(p.Metadata) != 0 {
		t.Errorf("unexpected metadata: %v", p.Metadata)
	}
}

func TestUpdatePatternAllowList(t *testing.T) {
	db := testDB(t)

	p := testPattern("p1")
	if err := db.CreatePattern(p); err != nil {
		t.Fatalf("CreatePattern: %v", err)
	}

	ok, err := db.UpdatePattern("p1", map[string]any{
		"title":      "Retry with jitter",
		"confidence": 0.9,
		"is_pinned":  true,
	})
	if err != nil {
		t.Fatalf("UpdatePattern: %v", err)
	}
	if !ok {
		t.Fatal("expected update to apply")
	}

	got, _ := db.PeekPattern("p1")
	if got.Title != "Retry with jitter" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", got.Confidence)
	}
	if !got.Pinned {
		t.Error("expected pinned")
	}
}

func TestUpdatePatternDenyList(t *testing.T) {
	db := testDB(t)

	p := testPattern("p1")
	if err := db.CreatePattern(p); err != nil {
		t.Fatalf("CreatePattern: %v", err)
	}

	// Deny-listed and unknown fields are dropped; an update reduced to
	// nothing returns false without touching the row.
	ok, err := db.UpdatePattern("p1", map[string]any{
		"pattern_id":   "p2",
		"created_at":   int64(1),
		"pattern_type": TypeWorkflow,
		"access_count": 99,
		"bogus":        "x",
	})
	if err != nil {
		t.Fatalf("UpdatePattern: %v", err)
	}
	if ok {
		t.Error("expected false for a fully deny-listed update")
	}

	got, _ := db.PeekPattern("p1")
	if got == nil {
		t.Fatal("pattern vanished")
	}
	if got.Type != TypeSolution || got.AccessCount != 0 {
		t.Error("deny-listed fields were mutated")
	}
}

func TestUpdatePatternValidation(t *testing.T) {
	db := testDB(t)

	if err := db.CreatePattern(testPattern("p1")); err != nil {
		t.Fatalf("CreatePattern: %v", err)
	}

	_, err := db.UpdatePattern("p1", map[string]any{"confidence": 2.0})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("confidence error = %v, want *ValidationError", err)
	}

	got, _ := db.PeekPattern("p1")
	if got.Confidence != 0.8 {
		t.Errorf("confidence mutated to %v by rejected update", got.Confidence)
	}
}

func TestUpdatePatternMissing(t *testing.T) {
	db := testDB(t)

	ok, err := db.UpdatePattern("nope", map[string]any{"title": "x"})
	if err != nil {
		t.Fatalf("UpdatePattern: %v", err)
	}
	if ok {
		t.Error("expected false for missing pattern")
	}
}

func TestDeletePatternCascades(t *testing.T) {
	db := testDB(t)

	if err := db.CreatePattern(testPattern("p1")); err != nil {
		t.Fatalf("CreatePattern: %v", err)
	}
	if err := db.CreatePattern(testPattern("p2")); err != nil {
		t.Fatalf("CreatePattern: %v", err)
	}
	if _, err := db.CreateEdge("p1", "p2", RelExtends, 0.9); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}
	if _, err := db.AddTag("p1", "resilience"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}

	ok, err := db.DeletePattern("p1")
	if err != nil {
		t.Fatalf("DeletePattern: %v", err)
	}
	if !ok {
		t.Fatal("expected delete to report true")
	}

	if p, _ := db.PeekPattern("p1"); p != nil {
		t.Error("pattern still present after delete")
	}
	if tags, _ := db.GetTags("p1"); len(tags) != 0 {
		t.Errorf("tags survived delete: %v", tags)
	}
	// The edge disappears from the other endpoint's list too.
	edges, err := db.EdgesFor("p2", DirBoth)
	if err != nil {
		t.Fatalf("EdgesFor: %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("edges survived endpoint delete: %v", edges)
	}

	ok, _ = db.DeletePattern("p1")
	if ok {
		t.Error("second delete should report false")
	}
}

func TestListPatterns(t *testing.T) {
	db := testDB(t)

	specs := []struct {
		id         string
		ptype      string
		scope      string
		confidence float64
	}{
		{"low", TypeWorkflow, ScopeGeneric, 0.4},
		{"high", TypeSolution, ScopeApplication, 0.9},
		{"mid", TypeSolution, ScopeGeneric, 0.6},
	}
	for _, s := range specs {
		p := testPattern(s.id)
		p.Type = s.ptype
		p.Scope = s.scope
		p.Confidence = s.confidence
		if err := db.CreatePattern(p); err != nil {
			t.Fatalf("CreatePattern %s: %v", s.id, err)
		}
	}

	all, err := db.ListPatterns(ListFilter{})
	if err != nil {
		t.Fatalf("ListPatterns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].ID != "high" || all[1].ID != "mid" || all[2].ID != "low" {
		t.Errorf("order = %s, %s, %s; want confidence desc", all[0].ID, all[1].ID, all[2].ID)
	}

	solutions, err := db.ListPatterns(ListFilter{Type: TypeSolution})
	if err != nil {
		t.Fatalf("ListPatterns: %v", err)
	}
	if len(solutions) != 2 {
		t.Errorf("solutions = %d, want 2", len(solutions))
	}

	confident, err := db.ListPatterns(ListFilter{MinConfidence: 0.5, Limit: 1})
	if err != nil {
		t.Fatalf("ListPatterns: %v", err)
	}
	if len(confident) != 1 || confident[0].ID != "high" {
		t.Errorf("min_confidence+limit returned %v", confident)
	}
}

func TestPatternMetadataRoundTrip(t *testing.T) {
	db := testDB(t)

	p := testPattern("p1")
	p.Metadata = map[string]any{"language": "go", "attempts": float64(3)}
	if err := db.CreatePattern(p); err != nil {
		t.Fatalf("CreatePattern: %v", err)
	}

	got, _ := db.PeekPattern("p1")
	if got.Metadata["language"] != "go" {
		t.Errorf("metadata language = %v", got.Metadata["language"])
	}
	if got.Metadata["attempts"] != float64(3) {
		t.Errorf("metadata attempts = %v", got.Metadata["attempts"])
	}
}
