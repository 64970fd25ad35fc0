package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"curricula-cli/internal/model"
)

// RESTClient talks to the course API over HTTP. Endpoint shapes:
//
//	POST   /sections            {course_id, title, order}       -> {id, ...}
//	PATCH  /sections/{id}       {title?, order?}
//	DELETE /sections/{id}
//	GET    /sections?course_id=...
//
// and the analogous /subsections and /modules routes. A write that would
// duplicate an order within its parent scope comes back 409.
type RESTClient struct {
	c *resty.Client
}

func NewRESTClient(baseURL, token string) *RESTClient {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if strings.TrimSpace(token) != "" {
		c.SetAuthToken(token)
	}
	return &RESTClient{c: c}
}

func mapStatus(resp *resty.Response) error {
	if resp == nil {
		return fmt.Errorf("gateway: no response")
	}
	switch resp.StatusCode() {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrOrderConflict
	case http.StatusNotImplemented:
		return ErrNotSupported
	}
	if resp.IsError() {
		return fmt.Errorf("gateway: %s: %s", resp.Status(), strings.TrimSpace(resp.String()))
	}
	return nil
}

func (g *RESTClient) CreateSection(ctx context.Context, in CreateSectionInput) (*model.Section, error) {
	out := &model.Section{}
	resp, err := g.c.R().SetContext(ctx).SetBody(in).SetResult(out).Post("/sections")
	if err != nil {
		return nil, err
	}
	if err := mapStatus(resp); err != nil {
		return nil, err
	}
	out.CourseID = in.CourseID
	return out, nil
}

func (g *RESTClient) UpdateSection(ctx context.Context, id string, patch SectionPatch) error {
	if patch.Empty() {
		return nil
	}
	resp, err := g.c.R().SetContext(ctx).SetBody(patch).Patch("/sections/" + id)
	if err != nil {
		return err
	}
	return mapStatus(resp)
}

func (g *RESTClient) DeleteSection(ctx context.Context, id string) error {
	resp, err := g.c.R().SetContext(ctx).Delete("/sections/" + id)
	if err != nil {
		return err
	}
	return mapStatus(resp)
}

func (g *RESTClient) ListSections(ctx context.Context, courseID string) ([]*model.Section, error) {
	var out []*model.Section
	resp, err := g.c.R().SetContext(ctx).
		SetQueryParam("course_id", courseID).
		SetResult(&out).
		Get("/sections")
	if err != nil {
		return nil, err
	}
	if err := mapStatus(resp); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *RESTClient) CreateSubSection(ctx context.Context, in CreateSubSectionInput) (*model.SubSection, error) {
	out := &model.SubSection{}
	resp, err := g.c.R().SetContext(ctx).SetBody(in).SetResult(out).Post("/subsections")
	if err != nil {
		return nil, err
	}
	if err := mapStatus(resp); err != nil {
		return nil, err
	}
	out.SectionID = in.SectionID
	return out, nil
}

func (g *RESTClient) UpdateSubSection(ctx context.Context, id string, patch SubSectionPatch) error {
	if patch.Empty() {
		return nil
	}
	resp, err := g.c.R().SetContext(ctx).SetBody(patch).Patch("/subsections/" + id)
	if err != nil {
		return err
	}
	return mapStatus(resp)
}

func (g *RESTClient) DeleteSubSection(ctx context.Context, id string) error {
	resp, err := g.c.R().SetContext(ctx).Delete("/subsections/" + id)
	if err != nil {
		return err
	}
	return mapStatus(resp)
}

func (g *RESTClient) ListSubSections(ctx context.Context, sectionID string) ([]*model.SubSection, error) {
	var out []*model.SubSection
	resp, err := g.c.R().SetContext(ctx).
		SetQueryParam("section_id", sectionID).
		SetResult(&out).
		Get("/subsections")
	if err != nil {
		return nil, err
	}
	if err := mapStatus(resp); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *RESTClient) CreateModule(ctx context.Context, in CreateModuleInput) (*model.Module, error) {
	out := &model.Module{}
	resp, err := g.c.R().SetContext(ctx).SetBody(in).SetResult(out).Post("/modules")
	if err != nil {
		return nil, err
	}
	if err := mapStatus(resp); err != nil {
		return nil, err
	}
	out.SectionID = in.SectionID
	out.SubSectionID = in.SubSectionID
	return out, nil
}

func (g *RESTClient) UpdateModule(ctx context.Context, id string, patch ModulePatch) error {
	if patch.Empty() {
		return nil
	}
	resp, err := g.c.R().SetContext(ctx).SetBody(patch).Patch("/modules/" + id)
	if err != nil {
		return err
	}
	return mapStatus(resp)
}

func (g *RESTClient) DeleteModule(ctx context.Context, id string) error {
	resp, err := g.c.R().SetContext(ctx).Delete("/modules/" + id)
	if err != nil {
		return err
	}
	return mapStatus(resp)
}

func (g *RESTClient) ListModules(ctx context.Context, parent model.ParentRef) ([]*model.Module, error) {
	r := g.c.R().SetContext(ctx)
	switch {
	case parent.SubSectionID != "":
		r.SetQueryParam("sub_section_id", parent.SubSectionID)
	case parent.SectionID != "":
		r.SetQueryParam("section_id", parent.SectionID)
	default:
		return nil, fmt.Errorf("gateway: module list needs a section or subsection parent")
	}
	var out []*model.Module
	resp, err := r.SetResult(&out).Get("/modules")
	if err != nil {
		return nil, err
	}
	if err := mapStatus(resp); err != nil {
		return nil, err
	}
	return out, nil
}
