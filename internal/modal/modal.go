package modal

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Kind identifies the decision surface a request wants rendered.
type Kind string

const (
	KindForm        Kind = "form"
	KindConfirm     Kind = "confirm"
	KindChoice      Kind = "choice"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multiselect"
	KindCustom      Kind = "custom"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldPassword FieldType = "password"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

// Field describes one form input.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	Default  string
	// Options is used by FieldSelect fields.
	Options []Option
}

type Option struct {
	Label       string
	Value       string
	Description string
	Disabled    bool
}

type FormSpec struct {
	Title       string
	Fields      []Field
	SubmitLabel string
	CancelLabel string
}

// FormValues maps field names to entered values. Checkbox fields use "true"/"false".
type FormValues map[string]string

type ConfirmSpec struct {
	Title        string
	Message      string
	ConfirmLabel string
	CancelLabel  string
	// Destructive marks the confirm action as dangerous (surfaces render it red).
	Destructive bool
}

type ChoiceSpec struct {
	Title   string
	Message string
	Options []Option
}

// SelectSpec configures single- and multi-select surfaces.
type SelectSpec struct {
	Title   string
	Message string
	Options []Option
}

type CustomSpec struct {
	Title string
}

// Request is one pending decision. The surface that renders it must call
// Resolve exactly once; extra calls are ignored.
type Request struct {
	ID   string
	Kind Kind

	Form    *FormSpec
	Confirm *ConfirmSpec
	Choice  *ChoiceSpec
	Select  *SelectSpec
	Multi   *SelectSpec
	Custom  *CustomSpec
	// Payload is the caller-supplied render payload for custom requests.
	Payload any

	once sync.Once
	done chan any
}

func newRequest(kind Kind) *Request {
	return &Request{
		ID:   uuid.NewString(),
		Kind: kind,
		done: make(chan any, 1),
	}
}

// Resolve completes the request with v. A nil v means cancelled/dismissed.
// Only the first call has any effect.
func (r *Request) Resolve(v any) {
	if r == nil {
		return
	}
	r.once.Do(func() { r.done <- v })
}

// Dismiss resolves the request as cancelled.
func (r *Request) Dismiss() { r.Resolve(nil) }

// MissingRequired returns the labels of required fields that vals leaves empty,
// in field order. Surfaces refuse submission while this is non-empty.
func MissingRequired(spec FormSpec, vals FormValues) []string {
	var missing []string
	for _, f := range spec.Fields {
		if !f.Required {
			continue
		}
		if f.Type == FieldCheckbox {
			continue
		}
		if strings.TrimSpace(vals[f.Name]) == "" {
			label := f.Label
			if strings.TrimSpace(label) == "" {
				label = f.Name
			}
			missing = append(missing, label)
		}
	}
	return missing
}
