package gateway

import (
	"context"
	"errors"

	"curricula-cli/internal/model"
)

// The persistence gateway is the engine's only way to durable state. Every
// write endpoint rejects an order value that already exists within the same
// parent scope; that rejection surfaces as ErrOrderConflict and is the reason
// reorders persist through a two-phase renumber.
var (
	ErrNotFound      = errors.New("gateway: not found")
	ErrOrderConflict = errors.New("gateway: duplicate order in parent scope")
	ErrNotSupported  = errors.New("gateway: not supported by backend")
)

type CreateSectionInput struct {
	CourseID string `json:"course_id" validate:"required"`
	Title    string `json:"title" validate:"required,min=3"`
	Order    int    `json:"order" validate:"gte=1"`
}

// SectionPatch carries only the logical fields the caller wants changed.
type SectionPatch struct {
	Title *string `json:"title,omitempty"`
	Order *int    `json:"order,omitempty"`
}

func (p SectionPatch) Empty() bool { return p.Title == nil && p.Order == nil }

type CreateSubSectionInput struct {
	SectionID   string   `json:"section_id" validate:"required"`
	Title       string   `json:"title" validate:"required,min=3"`
	Description string   `json:"description,omitempty"`
	Objectives  []string `json:"objectives,omitempty"`
	DurationMin int      `json:"duration,omitempty"`
	Order       int      `json:"order" validate:"gte=1"`
}

type SubSectionPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Objectives  *[]string `json:"objectives,omitempty"`
	DurationMin *int      `json:"duration,omitempty"`
	Order       *int      `json:"order,omitempty"`
}

func (p SubSectionPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Objectives == nil &&
		p.DurationMin == nil && p.Order == nil
}

type CreateModuleInput struct {
	SectionID    string           `json:"section_id,omitempty"`
	SubSectionID string           `json:"sub_section_id,omitempty"`
	Title        string           `json:"title" validate:"required,min=3"`
	Type         model.ModuleType `json:"type" validate:"required,oneof=video text quiz chat"`
	Content      string           `json:"content,omitempty"`
	Quiz         *model.QuizData  `json:"quiz_data,omitempty"`
	Order        int              `json:"order" validate:"gte=1"`
}

type ModulePatch struct {
	Title   *string           `json:"title,omitempty"`
	Type    *model.ModuleType `json:"type,omitempty"`
	Content *string           `json:"content,omitempty"`
	Quiz    *model.QuizData   `json:"quiz_data,omitempty"`
	Order   *int              `json:"order,omitempty"`
}

func (p ModulePatch) Empty() bool {
	return p.Title == nil && p.Type == nil && p.Content == nil && p.Quiz == nil && p.Order == nil
}

// Gateway is the CRUD contract over sections, subsections and modules.
// Identifiers are server-assigned on create; deletes cascade to children on
// the backend side (the engine only confirms the cascade with the user, it
// never deletes children itself).
type Gateway interface {
	CreateSection(ctx context.Context, in CreateSectionInput) (*model.Section, error)
	UpdateSection(ctx context.Context, id string, patch SectionPatch) error
	DeleteSection(ctx context.Context, id string) error
	ListSections(ctx context.Context, courseID string) ([]*model.Section, error)

	CreateSubSection(ctx context.Context, in CreateSubSectionInput) (*model.SubSection, error)
	UpdateSubSection(ctx context.Context, id string, patch SubSectionPatch) error
	DeleteSubSection(ctx context.Context, id string) error
	ListSubSections(ctx context.Context, sectionID string) ([]*model.SubSection, error)

	CreateModule(ctx context.Context, in CreateModuleInput) (*model.Module, error)
	UpdateModule(ctx context.Context, id string, patch ModulePatch) error
	DeleteModule(ctx context.Context, id string) error
	ListModules(ctx context.Context, parent model.ParentRef) ([]*model.Module, error)
}
