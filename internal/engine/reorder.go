package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"curricula-cli/internal/gateway"
	"curricula-cli/internal/modal"
	"curricula-cli/internal/model"
)

// Edge says which side of the drop target the dragged node lands on.
type Edge string

const (
	EdgeBefore Edge = "before"
	EdgeAfter  Edge = "after"
)

// tempOrderBase starts the temporary order range used by the first renumber
// phase. 1000 + count + index is disjoint from any final value for sibling
// groups under ~1000 nodes, which curriculum trees never approach.
const tempOrderBase = 1000

// Reorder attempt states, logged per transition. Only committed and
// rolledBack are terminal.
type reorderState string

const (
	stateIdle        reorderState = "idle"
	stateConfirming  reorderState = "confirming"
	stateOptimistic  reorderState = "optimistically-applied"
	statePersisting  reorderState = "persisting"
	stateCommitted   reorderState = "committed"
	stateRolledBack  reorderState = "rolled-back"
)

// planMove computes the final id order after dragging draggedID onto
// targetID with an edge hint. ok is false when the move is a no-op.
func planMove(ids []string, draggedID, targetID string, edge Edge) (out []string, ok bool, err error) {
	from := -1
	tgt := -1
	for i, id := range ids {
		if id == draggedID {
			from = i
		}
		if id == targetID {
			tgt = i
		}
	}
	if from < 0 {
		return nil, false, validationErrf("dragged item not found among siblings")
	}
	if tgt < 0 {
		return nil, false, validationErrf("drop target not found among siblings")
	}

	to := tgt
	if edge == EdgeAfter {
		to = tgt + 1
	}

	rest := make([]string, 0, len(ids)-1)
	rest = append(rest, ids[:from]...)
	rest = append(rest, ids[from+1:]...)
	// Removing the dragged item shifts everything after it left by one.
	if from < to {
		to--
	}
	if to < 0 {
		to = 0
	}
	if to > len(rest) {
		to = len(rest)
	}
	if to == from {
		return ids, false, nil
	}

	out = make([]string, 0, len(ids))
	out = append(out, rest[:to]...)
	out = append(out, draggedID)
	out = append(out, rest[to:]...)
	return out, true, nil
}

// renumber persists the new sibling order in two phases: first every sibling
// moves into the disjoint temporary range, then each gets its final 1..N
// value. A single pass would transiently assign an order another sibling
// still holds and be rejected by the store's uniqueness constraint.
func renumber(ctx context.Context, ids []string, patch func(ctx context.Context, id string, order int) error) error {
	n := len(ids)
	for i, id := range ids {
		if err := patch(ctx, id, tempOrderBase+n+i); err != nil {
			return fmt.Errorf("renumber (temp phase) %s: %w", id, err)
		}
	}
	for i, id := range ids {
		if err := patch(ctx, id, i+1); err != nil {
			return fmt.Errorf("renumber (final phase) %s: %w", id, err)
		}
	}
	return nil
}

// reorderPlan is the per-level wiring runReorder needs. All closures are
// invoked with e.mu held except patch and reconcile.
type reorderPlan struct {
	kind  string // "section", "sub-section" or "module", for messages
	scope string // persisting-guard key

	// ids returns the current sibling id order, or nil if the scope vanished.
	ids func() []string
	// apply reorders local state to orderedIDs, stamping order = index+1.
	apply func(orderedIDs []string)
	// snapshot captures the sibling group; the returned func restores it exactly.
	snapshot func() func()

	patch     func(ctx context.Context, id string, order int) error
	reconcile func(ctx context.Context) error
}

func (e *Engine) runReorder(ctx context.Context, plan reorderPlan, draggedID, targetID string, edge Edge) error {
	op := "reorder " + plan.kind
	if draggedID == targetID {
		return e.fail(op, validationErrf("cannot move a %s relative to itself", plan.kind))
	}
	if e.filterActive() {
		return e.fail(op, validationErrf("clear the search filter before reordering: the filtered view does not show real positions"))
	}

	e.mu.Lock()
	ids := plan.ids()
	e.mu.Unlock()
	if ids == nil {
		return e.fail(op, validationErrf("%s no longer exists", plan.kind))
	}
	if _, _, err := planMove(ids, draggedID, targetID, edge); err != nil {
		return e.fail(op, err)
	}

	e.logState(op, stateIdle, stateConfirming, draggedID)
	ok, err := e.prompter.RequestConfirmation(ctx, modal.ConfirmSpec{
		Title:        "Move " + plan.kind,
		Message:      fmt.Sprintf("Are you sure you want to move this %s?", plan.kind),
		ConfirmLabel: "Move",
		CancelLabel:  "Cancel",
	})
	if err != nil {
		return e.fail(op, err)
	}
	if !ok {
		e.logState(op, stateConfirming, stateIdle, draggedID)
		return nil
	}

	if !e.beginPersist(plan.scope) {
		return e.fail(op, fmt.Errorf("another reorder is still persisting in this scope, try again"))
	}
	defer e.endPersist(plan.scope)

	// Re-plan against current state: the tree may have changed while the
	// confirm surface was open.
	e.mu.Lock()
	ids = plan.ids()
	if ids == nil {
		e.mu.Unlock()
		return e.fail(op, validationErrf("%s no longer exists", plan.kind))
	}
	ordered, changed, err := planMove(ids, draggedID, targetID, edge)
	if err != nil {
		e.mu.Unlock()
		return e.fail(op, err)
	}
	if !changed {
		e.mu.Unlock()
		return nil
	}
	restore := plan.snapshot()
	plan.apply(ordered)
	e.mu.Unlock()
	e.logState(op, stateConfirming, stateOptimistic, draggedID)

	e.logState(op, stateOptimistic, statePersisting, draggedID)
	if err := renumber(ctx, ordered, plan.patch); err != nil {
		e.mu.Lock()
		restore()
		e.mu.Unlock()
		e.logState(op, statePersisting, stateRolledBack, draggedID)
		return e.fail(op, err)
	}
	e.logState(op, statePersisting, stateCommitted, draggedID)

	// Reconcile with server-confirmed state; drift here is not a failure.
	if plan.reconcile != nil {
		if err := plan.reconcile(ctx); err != nil {
			e.log.Warn(op+" reconcile failed", zap.Error(err))
		}
	}
	e.notifier.Success("Moved " + plan.kind)
	return nil
}

func (e *Engine) logState(op string, from, to reorderState, id string) {
	e.log.Debug(op,
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("id", id),
	)
}

// ReorderSection moves a section relative to another section of the course.
func (e *Engine) ReorderSection(ctx context.Context, draggedID, targetID string, edge Edge) error {
	plan := reorderPlan{
		kind:  "section",
		scope: model.ParentRef{CourseID: e.courseID()}.Key(),
		ids: func() []string {
			ids := make([]string, len(e.course.Sections))
			for i, s := range e.course.Sections {
				ids[i] = s.ID
			}
			return ids
		},
		apply: func(ordered []string) {
			e.course.Sections = reorderSections(e.course.Sections, ordered)
		},
		snapshot: func() func() {
			snap := make([]*model.Section, len(e.course.Sections))
			for i, s := range e.course.Sections {
				snap[i] = s.Clone()
			}
			return func() { e.course.Sections = snap }
		},
		patch: func(ctx context.Context, id string, order int) error {
			return e.gw.UpdateSection(ctx, id, gateway.SectionPatch{Order: &order})
		},
		reconcile: e.reconcileSections,
	}
	return e.runReorder(ctx, plan, draggedID, targetID, edge)
}

// ReorderSubSection moves a subsection within its owning section.
func (e *Engine) ReorderSubSection(ctx context.Context, draggedID, targetID string, edge Edge) error {
	e.mu.Lock()
	sec, _, _ := e.findSubSection(draggedID)
	e.mu.Unlock()
	if sec == nil {
		return e.fail("reorder sub-section", validationErrf("sub-section not found"))
	}
	secID := sec.ID

	plan := reorderPlan{
		kind:  "sub-section",
		scope: model.ParentRef{SectionID: secID}.Key(),
		ids: func() []string {
			s, _ := e.findSection(secID)
			if s == nil {
				return nil
			}
			ids := make([]string, len(s.SubSections))
			for i, ss := range s.SubSections {
				ids[i] = ss.ID
			}
			return ids
		},
		apply: func(ordered []string) {
			if s, _ := e.findSection(secID); s != nil {
				s.SubSections = reorderSubSections(s.SubSections, ordered)
			}
		},
		snapshot: func() func() {
			s, _ := e.findSection(secID)
			snap := make([]*model.SubSection, len(s.SubSections))
			for i, ss := range s.SubSections {
				snap[i] = ss.Clone()
			}
			return func() {
				if cur, _ := e.findSection(secID); cur != nil {
					cur.SubSections = snap
				}
			}
		},
		patch: func(ctx context.Context, id string, order int) error {
			return e.gw.UpdateSubSection(ctx, id, gateway.SubSectionPatch{Order: &order})
		},
		reconcile: func(ctx context.Context) error { return e.reconcileSubSections(ctx, secID) },
	}
	return e.runReorder(ctx, plan, draggedID, targetID, edge)
}

// ReorderModule moves a module within its owning section or subsection.
func (e *Engine) ReorderModule(ctx context.Context, draggedID, targetID string, edge Edge) error {
	e.mu.Lock()
	_, parent, _ := e.findModule(draggedID)
	e.mu.Unlock()
	if parent.Key() == (model.ParentRef{}).Key() {
		return e.fail("reorder module", validationErrf("module not found"))
	}

	plan := reorderPlan{
		kind:  "module",
		scope: parent.Key(),
		ids: func() []string {
			mods := e.modulesFor(parent)
			if mods == nil {
				return nil
			}
			ids := make([]string, len(*mods))
			for i, m := range *mods {
				ids[i] = m.ID
			}
			return ids
		},
		apply: func(ordered []string) {
			if mods := e.modulesFor(parent); mods != nil {
				*mods = reorderModules(*mods, ordered)
			}
		},
		snapshot: func() func() {
			mods := e.modulesFor(parent)
			snap := make([]*model.Module, len(*mods))
			for i, m := range *mods {
				snap[i] = m.Clone()
			}
			return func() {
				if cur := e.modulesFor(parent); cur != nil {
					*cur = snap
				}
			}
		},
		patch: func(ctx context.Context, id string, order int) error {
			return e.gw.UpdateModule(ctx, id, gateway.ModulePatch{Order: &order})
		},
		reconcile: func(ctx context.Context) error { return e.reconcileModules(ctx, parent) },
	}
	return e.runReorder(ctx, plan, draggedID, targetID, edge)
}

func reorderSections(cur []*model.Section, ordered []string) []*model.Section {
	byID := map[string]*model.Section{}
	for _, s := range cur {
		byID[s.ID] = s
	}
	out := make([]*model.Section, 0, len(ordered))
	for i, id := range ordered {
		if s := byID[id]; s != nil {
			s.Order = i + 1
			out = append(out, s)
		}
	}
	return out
}

func reorderSubSections(cur []*model.SubSection, ordered []string) []*model.SubSection {
	byID := map[string]*model.SubSection{}
	for _, s := range cur {
		byID[s.ID] = s
	}
	out := make([]*model.SubSection, 0, len(ordered))
	for i, id := range ordered {
		if s := byID[id]; s != nil {
			s.Order = i + 1
			out = append(out, s)
		}
	}
	return out
}

func reorderModules(cur []*model.Module, ordered []string) []*model.Module {
	byID := map[string]*model.Module{}
	for _, m := range cur {
		byID[m.ID] = m
	}
	out := make([]*model.Module, 0, len(ordered))
	for i, id := range ordered {
		if m := byID[id]; m != nil {
			m.Order = i + 1
			out = append(out, m)
		}
	}
	return out
}

// Reconciliation re-fetches a sibling group so local state tracks
// server-confirmed orders (defends against concurrent edits elsewhere).

func (e *Engine) reconcileSections(ctx context.Context) error {
	fresh, err := e.gw.ListSections(ctx, e.courseID())
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	// Keep already-loaded children; the list endpoint returns shallow rows.
	byID := map[string]*model.Section{}
	for _, s := range e.course.Sections {
		byID[s.ID] = s
	}
	out := make([]*model.Section, 0, len(fresh))
	for _, f := range fresh {
		if cur, ok := byID[f.ID]; ok {
			cur.Title = f.Title
			cur.Order = f.Order
			out = append(out, cur)
			continue
		}
		out = append(out, f)
	}
	e.course.Sections = out
	return nil
}

func (e *Engine) reconcileSubSections(ctx context.Context, sectionID string) error {
	fresh, err := e.gw.ListSubSections(ctx, sectionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	sec, _ := e.findSection(sectionID)
	if sec == nil {
		return nil
	}
	byID := map[string]*model.SubSection{}
	for _, s := range sec.SubSections {
		byID[s.ID] = s
	}
	out := make([]*model.SubSection, 0, len(fresh))
	for _, f := range fresh {
		if cur, ok := byID[f.ID]; ok {
			cur.Title = f.Title
			cur.Order = f.Order
			out = append(out, cur)
			continue
		}
		out = append(out, f)
	}
	sec.SubSections = out
	return nil
}

func (e *Engine) reconcileModules(ctx context.Context, parent model.ParentRef) error {
	fresh, err := e.gw.ListModules(ctx, parent)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if mods := e.modulesFor(parent); mods != nil {
		*mods = fresh
	}
	return nil
}
