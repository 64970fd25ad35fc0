package modal

import (
	"context"
	"errors"
	"sync"
)

// Policy controls what happens when a request arrives while another is live.
type Policy int

const (
	// PolicyCancelPending resolves the live request with nil before accepting
	// the new one. No promise is ever left dangling.
	PolicyCancelPending Policy = iota
	// PolicyRejectPending refuses the new request with ErrBusy.
	PolicyRejectPending
)

var ErrBusy = errors.New("modal: another request is live")

// Broker holds at most one live Request and hands results back to the caller
// that issued it. Callers block on the request's one-shot channel; the surface
// host (TUI) renders whatever Live() returns and calls Resolve when the user
// acts.
type Broker struct {
	mu     sync.Mutex
	policy Policy
	live   *Request
	onShow func(*Request)
}

func NewBroker(policy Policy) *Broker {
	return &Broker{policy: policy}
}

// SetSurface registers the surface host. fn is called with the request that
// became live, or nil when the slot empties. Must be set before requests that
// need a human; callers that never render (tests, scripted runs) may skip it.
func (b *Broker) SetSurface(fn func(*Request)) {
	b.mu.Lock()
	b.onShow = fn
	b.mu.Unlock()
}

// Live returns the currently visible request, or nil.
func (b *Broker) Live() *Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// DismissActive force-closes the live request, resolving it with nil.
func (b *Broker) DismissActive() {
	b.mu.Lock()
	req := b.live
	b.live = nil
	show := b.onShow
	b.mu.Unlock()
	if req != nil {
		req.Dismiss()
	}
	if show != nil && req != nil {
		show(nil)
	}
}

func (b *Broker) begin(req *Request) error {
	b.mu.Lock()
	if b.live != nil {
		if b.policy == PolicyRejectPending {
			b.mu.Unlock()
			return ErrBusy
		}
		prev := b.live
		b.live = nil
		prev.Dismiss()
	}
	b.live = req
	show := b.onShow
	b.mu.Unlock()
	if show != nil {
		show(req)
	}
	return nil
}

func (b *Broker) clear(req *Request) {
	b.mu.Lock()
	var show func(*Request)
	if b.live == req {
		b.live = nil
		show = b.onShow
	}
	b.mu.Unlock()
	if show != nil {
		show(nil)
	}
}

// wait blocks until the request resolves or ctx is done. Context cancellation
// dismisses the request so the surface never renders a dead prompt.
func (b *Broker) wait(ctx context.Context, req *Request) (any, error) {
	select {
	case v := <-req.done:
		b.clear(req)
		return v, nil
	case <-ctx.Done():
		req.Dismiss()
		b.clear(req)
		return nil, ctx.Err()
	}
}

// RequestForm collects values for spec's fields. A nil result means the user
// cancelled. Required-field validation happens on the surface: submission is
// refused (and the missing labels reported) until every required field is
// filled, so a non-nil result always satisfies MissingRequired.
func (b *Broker) RequestForm(ctx context.Context, spec FormSpec) (FormValues, error) {
	req := newRequest(KindForm)
	req.Form = &spec
	if err := b.begin(req); err != nil {
		return nil, err
	}
	v, err := b.wait(ctx, req)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	vals, ok := v.(FormValues)
	if !ok {
		return nil, nil
	}
	return vals, nil
}

// RequestConfirmation asks a yes/no question. Any dismissal (cancel button,
// escape, backdrop) yields false; the caller is never left pending.
func (b *Broker) RequestConfirmation(ctx context.Context, spec ConfirmSpec) (bool, error) {
	req := newRequest(KindConfirm)
	req.Confirm = &spec
	if err := b.begin(req); err != nil {
		return false, err
	}
	v, err := b.wait(ctx, req)
	if err != nil {
		return false, err
	}
	ok, _ := v.(bool)
	return ok, nil
}

// RequestChoice asks for a single option from a labeled list. ok is false when
// the user cancelled. The surface blocks submission while nothing is selected.
func (b *Broker) RequestChoice(ctx context.Context, spec ChoiceSpec) (string, bool, error) {
	req := newRequest(KindChoice)
	req.Choice = &spec
	if err := b.begin(req); err != nil {
		return "", false, err
	}
	v, err := b.wait(ctx, req)
	if err != nil {
		return "", false, err
	}
	s, ok := v.(string)
	if !ok {
		return "", false, nil
	}
	return s, true, nil
}

// RequestSelection is the single-select list surface; same contract as RequestChoice.
func (b *Broker) RequestSelection(ctx context.Context, spec SelectSpec) (string, bool, error) {
	req := newRequest(KindSelect)
	req.Select = &spec
	if err := b.begin(req); err != nil {
		return "", false, err
	}
	v, err := b.wait(ctx, req)
	if err != nil {
		return "", false, err
	}
	s, ok := v.(string)
	if !ok {
		return "", false, nil
	}
	return s, true, nil
}

// RequestMultiSelection returns the chosen option values. A nil result means
// cancelled; the surface blocks submission of an empty selection, so an empty
// non-nil slice never escapes ("no answer" stays distinct from "chose nothing").
func (b *Broker) RequestMultiSelection(ctx context.Context, spec SelectSpec) ([]string, error) {
	req := newRequest(KindMultiSelect)
	req.Multi = &spec
	if err := b.begin(req); err != nil {
		return nil, err
	}
	v, err := b.wait(ctx, req)
	if err != nil {
		return nil, err
	}
	vals, ok := v.([]string)
	if !ok || len(vals) == 0 {
		return nil, nil
	}
	return vals, nil
}

// RequestCustom renders caller-supplied content; the broker supplies only the
// close/resolve mechanism. A nil result means dismissed.
func (b *Broker) RequestCustom(ctx context.Context, payload any, spec CustomSpec) (any, error) {
	req := newRequest(KindCustom)
	req.Custom = &spec
	req.Payload = payload
	if err := b.begin(req); err != nil {
		return nil, err
	}
	return b.wait(ctx, req)
}
