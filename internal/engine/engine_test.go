package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"curricula-cli/internal/gateway"
	"curricula-cli/internal/modal"
	"curricula-cli/internal/model"
)

type patchCall struct {
	id    string
	order int
}

type secRow struct {
	courseID string
	title    string
	order    int
}

type subRow struct {
	sectionID   string
	title       string
	description string
	objectives  []string
	duration    int
	order       int
}

type modRow struct {
	parent  model.ParentRef
	title   string
	typ     model.ModuleType
	content string
	quiz    *model.QuizData
	order   int
}

// fakeGateway keeps canonical state in memory and rejects any order value
// already held by a sibling, like the real backends do. A single-pass
// renumber fails against it; only the two-phase sequence goes through.
type fakeGateway struct {
	mu   sync.Mutex
	next int

	secs map[string]*secRow
	subs map[string]*subRow
	mods map[string]*modRow

	sectionOrders []patchCall
	subOrders     []patchCall
	moduleOrders  []patchCall
	deletes       []string

	failSectionOrder func(id string, order int) error
	failModuleOrder  func(id string, order int) error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		secs: map[string]*secRow{},
		subs: map[string]*subRow{},
		mods: map[string]*modRow{},
	}
}

func (f *fakeGateway) id(prefix string) string {
	f.next++
	return fmt.Sprintf("%s-%d", prefix, f.next)
}

func (f *fakeGateway) CreateSection(_ context.Context, in gateway.CreateSectionInput) (*model.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.secs {
		if r.courseID == in.CourseID && r.order == in.Order {
			return nil, gateway.ErrOrderConflict
		}
	}
	id := f.id("sec")
	f.secs[id] = &secRow{courseID: in.CourseID, title: in.Title, order: in.Order}
	return &model.Section{ID: id, CourseID: in.CourseID, Title: in.Title, Order: in.Order}, nil
}

func (f *fakeGateway) UpdateSection(_ context.Context, id string, patch gateway.SectionPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.secs[id]
	if !ok {
		return gateway.ErrNotFound
	}
	if patch.Order != nil {
		f.sectionOrders = append(f.sectionOrders, patchCall{id: id, order: *patch.Order})
		if f.failSectionOrder != nil {
			if err := f.failSectionOrder(id, *patch.Order); err != nil {
				return err
			}
		}
		for otherID, other := range f.secs {
			if otherID != id && other.courseID == r.courseID && other.order == *patch.Order {
				return gateway.ErrOrderConflict
			}
		}
		r.order = *patch.Order
	}
	if patch.Title != nil {
		r.title = *patch.Title
	}
	return nil
}

func (f *fakeGateway) DeleteSection(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.secs[id]; !ok {
		return gateway.ErrNotFound
	}
	delete(f.secs, id)
	for subID, sub := range f.subs {
		if sub.sectionID == id {
			delete(f.subs, subID)
			for modID, mod := range f.mods {
				if mod.parent.SubSectionID == subID {
					delete(f.mods, modID)
				}
			}
		}
	}
	for modID, mod := range f.mods {
		if mod.parent.SectionID == id {
			delete(f.mods, modID)
		}
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeGateway) ListSections(_ context.Context, courseID string) ([]*model.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Section
	for id, r := range f.secs {
		if r.courseID == courseID {
			out = append(out, &model.Section{ID: id, CourseID: courseID, Title: r.title, Order: r.order})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakeGateway) CreateSubSection(_ context.Context, in gateway.CreateSubSectionInput) (*model.SubSection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.subs {
		if r.sectionID == in.SectionID && r.order == in.Order {
			return nil, gateway.ErrOrderConflict
		}
	}
	id := f.id("sub")
	f.subs[id] = &subRow{
		sectionID:   in.SectionID,
		title:       in.Title,
		description: in.Description,
		objectives:  in.Objectives,
		duration:    in.DurationMin,
		order:       in.Order,
	}
	return &model.SubSection{
		ID:          id,
		SectionID:   in.SectionID,
		Title:       in.Title,
		Description: in.Description,
		Objectives:  in.Objectives,
		DurationMin: in.DurationMin,
		Order:       in.Order,
	}, nil
}

func (f *fakeGateway) UpdateSubSection(_ context.Context, id string, patch gateway.SubSectionPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.subs[id]
	if !ok {
		return gateway.ErrNotFound
	}
	if patch.Order != nil {
		f.subOrders = append(f.subOrders, patchCall{id: id, order: *patch.Order})
		for otherID, other := range f.subs {
			if otherID != id && other.sectionID == r.sectionID && other.order == *patch.Order {
				return gateway.ErrOrderConflict
			}
		}
		r.order = *patch.Order
	}
	if patch.Title != nil {
		r.title = *patch.Title
	}
	if patch.Description != nil {
		r.description = *patch.Description
	}
	if patch.Objectives != nil {
		r.objectives = *patch.Objectives
	}
	if patch.DurationMin != nil {
		r.duration = *patch.DurationMin
	}
	return nil
}

func (f *fakeGateway) DeleteSubSection(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[id]; !ok {
		return gateway.ErrNotFound
	}
	delete(f.subs, id)
	for modID, mod := range f.mods {
		if mod.parent.SubSectionID == id {
			delete(f.mods, modID)
		}
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeGateway) ListSubSections(_ context.Context, sectionID string) ([]*model.SubSection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.SubSection
	for id, r := range f.subs {
		if r.sectionID == sectionID {
			out = append(out, &model.SubSection{
				ID:          id,
				SectionID:   sectionID,
				Title:       r.title,
				Description: r.description,
				Objectives:  r.objectives,
				DurationMin: r.duration,
				Order:       r.order,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakeGateway) CreateModule(_ context.Context, in gateway.CreateModuleInput) (*model.Module, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent := model.ParentRef{SectionID: in.SectionID, SubSectionID: in.SubSectionID}
	for _, r := range f.mods {
		if r.parent == parent && r.order == in.Order {
			return nil, gateway.ErrOrderConflict
		}
	}
	id := f.id("mod")
	f.mods[id] = &modRow{
		parent:  parent,
		title:   in.Title,
		typ:     in.Type,
		content: in.Content,
		quiz:    in.Quiz,
		order:   in.Order,
	}
	return &model.Module{
		ID:           id,
		SectionID:    in.SectionID,
		SubSectionID: in.SubSectionID,
		Title:        in.Title,
		Type:         in.Type,
		Content:      in.Content,
		Quiz:         in.Quiz,
		Order:        in.Order,
	}, nil
}

func (f *fakeGateway) UpdateModule(_ context.Context, id string, patch gateway.ModulePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.mods[id]
	if !ok {
		return gateway.ErrNotFound
	}
	if patch.Order != nil {
		f.moduleOrders = append(f.moduleOrders, patchCall{id: id, order: *patch.Order})
		if f.failModuleOrder != nil {
			if err := f.failModuleOrder(id, *patch.Order); err != nil {
				return err
			}
		}
		for otherID, other := range f.mods {
			if otherID != id && other.parent == r.parent && other.order == *patch.Order {
				return gateway.ErrOrderConflict
			}
		}
		r.order = *patch.Order
	}
	if patch.Title != nil {
		r.title = *patch.Title
	}
	if patch.Content != nil {
		r.content = *patch.Content
	}
	if patch.Quiz != nil {
		r.quiz = patch.Quiz
	}
	return nil
}

func (f *fakeGateway) DeleteModule(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.mods[id]; !ok {
		return gateway.ErrNotFound
	}
	delete(f.mods, id)
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeGateway) ListModules(_ context.Context, parent model.ParentRef) ([]*model.Module, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Module
	for id, r := range f.mods {
		if r.parent == parent {
			out = append(out, &model.Module{
				ID:           id,
				SectionID:    r.parent.SectionID,
				SubSectionID: r.parent.SubSectionID,
				Title:        r.title,
				Type:         r.typ,
				Content:      r.content,
				Quiz:         r.quiz,
				Order:        r.order,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// seedCourse creates n sections named "Section 1..n" through the gateway and
// returns an engine that has loaded them.
func seedCourse(t *testing.T, gw *fakeGateway, prompter Prompter, nSections int) *Engine {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < nSections; i++ {
		_, err := gw.CreateSection(ctx, gateway.CreateSectionInput{
			CourseID: "course-1",
			Title:    fmt.Sprintf("Section %d", i+1),
			Order:    i + 1,
		})
		if err != nil {
			t.Fatalf("seed section %d: %v", i+1, err)
		}
	}
	eng := New("course-1", gw, prompter, nil, nil)
	if err := eng.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	return eng
}

func sectionIDs(course *model.Course) []string {
	ids := make([]string, len(course.Sections))
	for i, s := range course.Sections {
		ids[i] = s.ID
	}
	return ids
}

func assertContiguousSections(t *testing.T, course *model.Course) {
	t.Helper()
	for i, s := range course.Sections {
		if s.Order != i+1 {
			t.Fatalf("section %s at index %d has order %d, want %d", s.ID, i, s.Order, i+1)
		}
	}
}

func TestLoadBuildsTree(t *testing.T) {
	gw := newFakeGateway()
	ctx := context.Background()
	sec, err := gw.CreateSection(ctx, gateway.CreateSectionInput{CourseID: "course-1", Title: "Basics", Order: 1})
	if err != nil {
		t.Fatalf("create section: %v", err)
	}
	sub, err := gw.CreateSubSection(ctx, gateway.CreateSubSectionInput{SectionID: sec.ID, Title: "Warmup", Order: 1})
	if err != nil {
		t.Fatalf("create subsection: %v", err)
	}
	if _, err := gw.CreateModule(ctx, gateway.CreateModuleInput{
		SubSectionID: sub.ID, Title: "Intro video", Type: model.ModuleTypeVideo, Content: "vid-1", Order: 1,
	}); err != nil {
		t.Fatalf("create module: %v", err)
	}

	eng := New("course-1", gw, &modal.Scripted{}, nil, nil)
	if err := eng.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	course := eng.Course()
	if len(course.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(course.Sections))
	}
	if len(course.Sections[0].SubSections) != 1 {
		t.Fatalf("got %d subsections, want 1", len(course.Sections[0].SubSections))
	}
	if len(course.Sections[0].SubSections[0].Modules) != 1 {
		t.Fatalf("got %d modules, want 1", len(course.Sections[0].SubSections[0].Modules))
	}
}

func TestCourseReturnsCopy(t *testing.T) {
	gw := newFakeGateway()
	eng := seedCourse(t, gw, &modal.Scripted{}, 1)

	snap := eng.Course()
	snap.Sections[0].Title = "mutated"

	if got := eng.Course().Sections[0].Title; got == "mutated" {
		t.Fatal("mutating a Course() snapshot leaked into engine state")
	}
}

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"  Basics  ", "Basics", false},
		{"ok!", "ok!", false},
		{"ab", "", true},
		{"  a ", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := cleanTitle(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("cleanTitle(%q): want error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("cleanTitle(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("cleanTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
