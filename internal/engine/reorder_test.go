package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"curricula-cli/internal/gateway"
	"curricula-cli/internal/modal"
	"curricula-cli/internal/model"
)

func TestPlanMove(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	cases := []struct {
		name    string
		dragged string
		target  string
		edge    Edge
		want    []string
		changed bool
	}{
		{"last before first", "d", "a", EdgeBefore, []string{"d", "a", "b", "c"}, true},
		{"first after last", "a", "d", EdgeAfter, []string{"b", "c", "d", "a"}, true},
		{"middle forward", "b", "c", EdgeAfter, []string{"a", "c", "b", "d"}, true},
		{"middle backward", "c", "b", EdgeBefore, []string{"a", "c", "b", "d"}, true},
		{"before own successor is a no-op", "a", "b", EdgeBefore, ids, false},
		{"after own predecessor is a no-op", "b", "a", EdgeAfter, ids, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed, err := planMove(ids, tc.dragged, tc.target, tc.edge)
			if err != nil {
				t.Fatalf("planMove: %v", err)
			}
			if changed != tc.changed {
				t.Fatalf("changed = %v, want %v", changed, tc.changed)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPlanMoveUnknownIDs(t *testing.T) {
	ids := []string{"a", "b"}
	if _, _, err := planMove(ids, "zz", "a", EdgeBefore); err == nil {
		t.Fatal("want error for unknown dragged id")
	}
	if _, _, err := planMove(ids, "a", "zz", EdgeBefore); err == nil {
		t.Fatal("want error for unknown target id")
	}
}

func TestReorderSectionTwoPhase(t *testing.T) {
	gw := newFakeGateway()
	prompter := &modal.Scripted{Confirms: []bool{true}}
	eng := seedCourse(t, gw, prompter, 3)
	ids := sectionIDs(eng.Course())

	err := eng.ReorderSection(context.Background(), ids[2], ids[0], EdgeBefore)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}

	// Phase one parks every sibling in the temporary range, phase two assigns
	// the final contiguous values, both in target order.
	wantIDs := []string{ids[2], ids[0], ids[1]}
	wantOrders := []int{1003, 1004, 1005, 1, 2, 3}
	if len(gw.sectionOrders) != len(wantOrders) {
		t.Fatalf("got %d order patches, want %d: %+v", len(gw.sectionOrders), len(wantOrders), gw.sectionOrders)
	}
	for i, call := range gw.sectionOrders {
		if call.order != wantOrders[i] {
			t.Fatalf("patch %d has order %d, want %d", i, call.order, wantOrders[i])
		}
		if call.id != wantIDs[i%3] {
			t.Fatalf("patch %d targets %s, want %s", i, call.id, wantIDs[i%3])
		}
	}

	course := eng.Course()
	if got := sectionIDs(course); !reflect.DeepEqual(got, wantIDs) {
		t.Fatalf("local order %v, want %v", got, wantIDs)
	}
	assertContiguousSections(t, course)

	// The store agrees after reconcile.
	fresh, err := gw.ListSections(context.Background(), "course-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, s := range fresh {
		if s.ID != wantIDs[i] {
			t.Fatalf("store order %d is %s, want %s", i, s.ID, wantIDs[i])
		}
	}
}

func TestReorderSectionRollsBackOnPersistFailure(t *testing.T) {
	gw := newFakeGateway()
	prompter := &modal.Scripted{Confirms: []bool{true}}
	eng := seedCourse(t, gw, prompter, 3)
	before := eng.Course()
	ids := sectionIDs(before)

	boom := errors.New("backend unavailable")
	gw.failSectionOrder = func(id string, order int) error {
		// Fail in the middle of the final phase.
		if order == 2 {
			return boom
		}
		return nil
	}

	err := eng.ReorderSection(context.Background(), ids[2], ids[0], EdgeBefore)
	if err == nil {
		t.Fatal("want error from failed persist")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("error %v does not wrap the backend failure", err)
	}

	after := eng.Course()
	if !reflect.DeepEqual(sectionIDs(after), ids) {
		t.Fatalf("local order %v after rollback, want %v", sectionIDs(after), ids)
	}
	for i, s := range after.Sections {
		if s.Order != before.Sections[i].Order {
			t.Fatalf("section %s order %d after rollback, want %d", s.ID, s.Order, before.Sections[i].Order)
		}
	}
}

func TestReorderDeclinedConfirmTouchesNothing(t *testing.T) {
	gw := newFakeGateway()
	prompter := &modal.Scripted{Confirms: []bool{false}}
	eng := seedCourse(t, gw, prompter, 3)
	ids := sectionIDs(eng.Course())

	if err := eng.ReorderSection(context.Background(), ids[2], ids[0], EdgeBefore); err != nil {
		t.Fatalf("declined reorder should not error: %v", err)
	}
	if len(gw.sectionOrders) != 0 {
		t.Fatalf("declined reorder issued %d order patches", len(gw.sectionOrders))
	}
	if got := sectionIDs(eng.Course()); !reflect.DeepEqual(got, ids) {
		t.Fatalf("local order %v changed by declined reorder", got)
	}
}

func TestReorderRejectedWhileFiltered(t *testing.T) {
	gw := newFakeGateway()
	// No confirms queued: reaching the prompt would answer no, but the
	// filter check must reject first.
	eng := seedCourse(t, gw, &modal.Scripted{}, 3)
	ids := sectionIDs(eng.Course())

	eng.SetFilter("intro")
	err := eng.ReorderSection(context.Background(), ids[2], ids[0], EdgeBefore)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}

	eng.SetFilter("")
	prompterOK := &modal.Scripted{Confirms: []bool{true}}
	eng2 := seedCourse(t, newFakeGateway(), prompterOK, 2)
	ids2 := sectionIDs(eng2.Course())
	if err := eng2.ReorderSection(context.Background(), ids2[1], ids2[0], EdgeBefore); err != nil {
		t.Fatalf("reorder with cleared filter: %v", err)
	}
}

func TestReorderSelfDropRejected(t *testing.T) {
	gw := newFakeGateway()
	eng := seedCourse(t, gw, &modal.Scripted{}, 2)
	ids := sectionIDs(eng.Course())

	err := eng.ReorderSection(context.Background(), ids[0], ids[0], EdgeAfter)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError for self drop, got %v", err)
	}
}

func TestReorderScopeGuardRejectsConcurrent(t *testing.T) {
	gw := newFakeGateway()
	prompter := &modal.Scripted{Confirms: []bool{true}}
	eng := seedCourse(t, gw, prompter, 3)
	ids := sectionIDs(eng.Course())

	scope := model.ParentRef{CourseID: "course-1"}.Key()
	if !eng.beginPersist(scope) {
		t.Fatal("could not occupy scope")
	}
	defer eng.endPersist(scope)

	err := eng.ReorderSection(context.Background(), ids[2], ids[0], EdgeBefore)
	if err == nil || !strings.Contains(err.Error(), "another reorder") {
		t.Fatalf("want scope-guard rejection, got %v", err)
	}
	if len(gw.sectionOrders) != 0 {
		t.Fatalf("guarded reorder issued %d order patches", len(gw.sectionOrders))
	}
}

func TestReorderModuleWithinSubSection(t *testing.T) {
	gw := newFakeGateway()
	ctx := context.Background()
	sec, _ := gw.CreateSection(ctx, gateway.CreateSectionInput{CourseID: "course-1", Title: "Basics", Order: 1})
	sub, _ := gw.CreateSubSection(ctx, gateway.CreateSubSectionInput{SectionID: sec.ID, Title: "Warmup", Order: 1})
	var modIDs []string
	for i := 0; i < 3; i++ {
		m, err := gw.CreateModule(ctx, gateway.CreateModuleInput{
			SubSectionID: sub.ID,
			Title:        fmt.Sprintf("Module %d", i+1),
			Type:         model.ModuleTypeText,
			Content:      "body",
			Order:        i + 1,
		})
		if err != nil {
			t.Fatalf("seed module: %v", err)
		}
		modIDs = append(modIDs, m.ID)
	}

	prompter := &modal.Scripted{Confirms: []bool{true}}
	eng := New("course-1", gw, prompter, nil, nil)
	if err := eng.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := eng.ReorderModule(ctx, modIDs[0], modIDs[2], EdgeAfter); err != nil {
		t.Fatalf("reorder module: %v", err)
	}

	mods := eng.Course().Sections[0].SubSections[0].Modules
	want := []string{modIDs[1], modIDs[2], modIDs[0]}
	for i, m := range mods {
		if m.ID != want[i] {
			t.Fatalf("module %d is %s, want %s", i, m.ID, want[i])
		}
		if m.Order != i+1 {
			t.Fatalf("module %s order %d, want %d", m.ID, m.Order, i+1)
		}
	}
}

func TestReorderModuleRollbackRestoresSnapshot(t *testing.T) {
	gw := newFakeGateway()
	ctx := context.Background()
	sec, _ := gw.CreateSection(ctx, gateway.CreateSectionInput{CourseID: "course-1", Title: "Basics", Order: 1})
	var modIDs []string
	for i := 0; i < 3; i++ {
		m, err := gw.CreateModule(ctx, gateway.CreateModuleInput{
			SectionID: sec.ID,
			Title:     fmt.Sprintf("Module %d", i+1),
			Type:      model.ModuleTypeText,
			Content:   "body",
			Order:     i + 1,
		})
		if err != nil {
			t.Fatalf("seed module: %v", err)
		}
		modIDs = append(modIDs, m.ID)
	}

	gw.failModuleOrder = func(id string, order int) error {
		if order == 3 {
			return errors.New("write refused")
		}
		return nil
	}

	prompter := &modal.Scripted{Confirms: []bool{true}}
	eng := New("course-1", gw, prompter, nil, nil)
	if err := eng.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := eng.ReorderModule(ctx, modIDs[2], modIDs[0], EdgeBefore); err == nil {
		t.Fatal("want error from failed persist")
	}

	mods := eng.Course().Sections[0].Modules
	for i, m := range mods {
		if m.ID != modIDs[i] {
			t.Fatalf("module %d is %s after rollback, want %s", i, m.ID, modIDs[i])
		}
		if m.Order != i+1 {
			t.Fatalf("module %s order %d after rollback, want %d", m.ID, m.Order, i+1)
		}
	}
}

func TestReorderSubSection(t *testing.T) {
	gw := newFakeGateway()
	ctx := context.Background()
	sec, _ := gw.CreateSection(ctx, gateway.CreateSectionInput{CourseID: "course-1", Title: "Basics", Order: 1})
	var subIDs []string
	for i := 0; i < 3; i++ {
		s, err := gw.CreateSubSection(ctx, gateway.CreateSubSectionInput{
			SectionID: sec.ID,
			Title:     fmt.Sprintf("Part %d", i+1),
			Order:     i + 1,
		})
		if err != nil {
			t.Fatalf("seed subsection: %v", err)
		}
		subIDs = append(subIDs, s.ID)
	}

	prompter := &modal.Scripted{Confirms: []bool{true}}
	eng := New("course-1", gw, prompter, nil, nil)
	if err := eng.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := eng.ReorderSubSection(ctx, subIDs[1], subIDs[0], EdgeBefore); err != nil {
		t.Fatalf("reorder subsection: %v", err)
	}

	subs := eng.Course().Sections[0].SubSections
	want := []string{subIDs[1], subIDs[0], subIDs[2]}
	for i, s := range subs {
		if s.ID != want[i] {
			t.Fatalf("subsection %d is %s, want %s", i, s.ID, want[i])
		}
		if s.Order != i+1 {
			t.Fatalf("subsection %s order %d, want %d", s.ID, s.Order, i+1)
		}
	}
}

func TestRenumberTempRangeDisjoint(t *testing.T) {
	var calls []patchCall
	ids := []string{"x", "y", "z"}
	err := renumber(context.Background(), ids, func(_ context.Context, id string, order int) error {
		calls = append(calls, patchCall{id: id, order: order})
		return nil
	})
	if err != nil {
		t.Fatalf("renumber: %v", err)
	}
	if len(calls) != 6 {
		t.Fatalf("got %d calls, want 6", len(calls))
	}
	finals := map[int]bool{}
	for _, c := range calls[:3] {
		if c.order < tempOrderBase {
			t.Fatalf("temp phase assigned %d, inside the final range", c.order)
		}
	}
	for i, c := range calls[3:] {
		if c.order != i+1 {
			t.Fatalf("final phase call %d assigned %d, want %d", i, c.order, i+1)
		}
		finals[c.order] = true
	}
	if len(finals) != 3 {
		t.Fatalf("final orders not unique: %+v", calls[3:])
	}
}
