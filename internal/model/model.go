package model

import "time"

type ModuleType string

const (
	ModuleTypeVideo ModuleType = "video"
	ModuleTypeText  ModuleType = "text"
	ModuleTypeQuiz  ModuleType = "quiz"
	ModuleTypeChat  ModuleType = "chat"
)

// Course is referenced by id only; the editor owns one course tree at a time.
type Course struct {
	ID       string     `json:"id"`
	Title    string     `json:"title,omitempty"`
	Sections []*Section `json:"sections"`
}

type Section struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
	Title    string `json:"title"`
	// Order is 1-based and unique among the sections of one course.
	// After a committed mutation the set of sibling orders is contiguous.
	Order       int           `json:"order"`
	Modules     []*Module     `json:"modules,omitempty"`
	SubSections []*SubSection `json:"subSections,omitempty"`
	CreatedAt   time.Time     `json:"createdAt,omitempty"`
	UpdatedAt   time.Time     `json:"updatedAt,omitempty"`
}

type SubSection struct {
	ID          string   `json:"id"`
	SectionID   string   `json:"sectionId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Objectives  []string `json:"objectives,omitempty"`
	// DurationMin is an estimated duration in minutes; 0 means unset.
	DurationMin int       `json:"durationMin,omitempty"`
	Order       int       `json:"order"`
	Modules     []*Module `json:"modules,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

type Module struct {
	ID string `json:"id"`
	// Exactly one of SectionID / SubSectionID is set: a module is owned by a
	// section directly or by one of its subsections, never both.
	SectionID    string     `json:"sectionId,omitempty"`
	SubSectionID string     `json:"subSectionId,omitempty"`
	Title        string     `json:"title"`
	Type         ModuleType `json:"type"`
	// Content is the type-dependent payload: a video identifier/URL for video
	// modules, markup for text modules, a serialized case list for chat modules.
	Content   string    `json:"content,omitempty"`
	Quiz      *QuizData `json:"quiz,omitempty"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type QuizData struct {
	Questions []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	// Answer indexes into Options.
	Answer int `json:"answer"`
}

// ParentRef addresses a sibling scope: the sections of a course, the
// subsections of a section, or the modules of a section/subsection.
type ParentRef struct {
	CourseID     string `json:"courseId,omitempty"`
	SectionID    string `json:"sectionId,omitempty"`
	SubSectionID string `json:"subSectionId,omitempty"`
}

func (p ParentRef) Key() string {
	switch {
	case p.SubSectionID != "":
		return "subsection:" + p.SubSectionID
	case p.SectionID != "":
		return "section:" + p.SectionID
	default:
		return "course:" + p.CourseID
	}
}
