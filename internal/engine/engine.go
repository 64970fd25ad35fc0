package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"curricula-cli/internal/gateway"
	"curricula-cli/internal/modal"
	"curricula-cli/internal/model"
)

// Prompter is the slice of the modal broker the engine needs. *modal.Broker
// and *modal.Scripted both satisfy it.
type Prompter interface {
	RequestForm(ctx context.Context, spec modal.FormSpec) (modal.FormValues, error)
	RequestConfirmation(ctx context.Context, spec modal.ConfirmSpec) (bool, error)
	RequestChoice(ctx context.Context, spec modal.ChoiceSpec) (string, bool, error)
	RequestSelection(ctx context.Context, spec modal.SelectSpec) (string, bool, error)
	RequestMultiSelection(ctx context.Context, spec modal.SelectSpec) ([]string, error)
}

// Notifier receives fire-and-forget user feedback. Not behaviorally
/// significant: the engine never branches on it.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

func NopNotifier() Notifier { return nopNotifier{} }

// ValidationError marks failures detected before any gateway call. The local
// tree is untouched when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Engine owns the in-memory tree for one course and keeps it synchronized
// with the persistence gateway. All mutations flow through it; the TUI only
// renders snapshots.
type Engine struct {
	mu     sync.Mutex
	course *model.Course

	gw       gateway.Gateway
	prompter Prompter
	notifier Notifier
	log      *zap.Logger
	validate *validator.Validate

	// filter mirrors the outline's search term. Reordering is defined only
	// over the unfiltered sibling list, so a non-empty filter blocks it.
	filter string

	// persisting guards sibling scopes whose renumber is in flight. A second
	// reorder on the same scope is rejected rather than interleaved, since
	// interleaving two renumber sequences can corrupt contiguity.
	persisting map[string]bool
}

func New(courseID string, gw gateway.Gateway, prompter Prompter, notifier Notifier, log *zap.Logger) *Engine {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		course:     &model.Course{ID: courseID},
		gw:         gw,
		prompter:   prompter,
		notifier:   notifier,
		log:        log,
		validate:   validator.New(),
		persisting: map[string]bool{},
	}
}

// Load fetches the whole tree for the engine's course.
func (e *Engine) Load(ctx context.Context) error {
	sections, err := e.gw.ListSections(ctx, e.courseID())
	if err != nil {
		return err
	}
	for _, sec := range sections {
		subs, err := e.gw.ListSubSections(ctx, sec.ID)
		if err != nil {
			return err
		}
		sec.SubSections = subs
		mods, err := e.gw.ListModules(ctx, model.ParentRef{SectionID: sec.ID})
		if err != nil {
			return err
		}
		sec.Modules = mods
		for _, sub := range subs {
			smods, err := e.gw.ListModules(ctx, model.ParentRef{SubSectionID: sub.ID})
			if err != nil {
				return err
			}
			sub.Modules = smods
		}
	}
	e.mu.Lock()
	e.course.Sections = sections
	e.mu.Unlock()
	return nil
}

func (e *Engine) courseID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.course.ID
}

// Course returns a deep copy for rendering; callers never see live state.
func (e *Engine) Course() *model.Course {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.course.Clone()
}

// SetFilter records the outline's current search term.
func (e *Engine) SetFilter(term string) {
	e.mu.Lock()
	e.filter = strings.TrimSpace(term)
	e.mu.Unlock()
}

func (e *Engine) filterActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter != ""
}

// Locators. Callers hold e.mu.

func (e *Engine) findSection(id string) (*model.Section, int) {
	for i, s := range e.course.Sections {
		if s.ID == id {
			return s, i
		}
	}
	return nil, -1
}

func (e *Engine) findSubSection(id string) (*model.Section, *model.SubSection, int) {
	for _, s := range e.course.Sections {
		for i, ss := range s.SubSections {
			if ss.ID == id {
				return s, ss, i
			}
		}
	}
	return nil, nil, -1
}

// findModules returns the module slice owning id, its parent ref, and the index.
func (e *Engine) findModule(id string) (*[]*model.Module, model.ParentRef, int) {
	for _, s := range e.course.Sections {
		for i, m := range s.Modules {
			if m.ID == id {
				return &s.Modules, model.ParentRef{SectionID: s.ID}, i
			}
		}
		for _, ss := range s.SubSections {
			for i, m := range ss.Modules {
				if m.ID == id {
					return &ss.Modules, model.ParentRef{SubSectionID: ss.ID}, i
				}
			}
		}
	}
	return nil, model.ParentRef{}, -1
}

func (e *Engine) modulesFor(parent model.ParentRef) *[]*model.Module {
	switch {
	case parent.SubSectionID != "":
		if _, ss, _ := e.findSubSection(parent.SubSectionID); ss != nil {
			return &ss.Modules
		}
	case parent.SectionID != "":
		if s, _ := e.findSection(parent.SectionID); s != nil {
			return &s.Modules
		}
	}
	return nil
}

func (e *Engine) beginPersist(scope string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.persisting[scope] {
		return false
	}
	e.persisting[scope] = true
	return true
}

func (e *Engine) endPersist(scope string) {
	e.mu.Lock()
	delete(e.persisting, scope)
	e.mu.Unlock()
}

// fail reports err to the notifier and returns it.
func (e *Engine) fail(op string, err error) error {
	e.log.Warn(op+" failed", zap.Error(err))
	e.notifier.Error(err.Error())
	return err
}

func (e *Engine) validateStruct(in any) error {
	if err := e.validate.Struct(in); err != nil {
		return &ValidationError{Msg: err.Error()}
	}
	return nil
}

// cleanTitle trims and enforces the minimum title length used across every
// create/edit surface.
func cleanTitle(raw string) (string, error) {
	t := strings.TrimSpace(raw)
	if len(t) < 3 {
		return "", validationErrf("title must be at least 3 characters")
	}
	return t, nil
}
