package invoice

import "luxepos/internal/domain"

// Registry holds the open drafts by id. It is not safe for concurrent
// use; the service serializes access.
type Registry struct {
	drafts map[string]*Draft
}

func NewRegistry() *Registry {
	return &Registry{drafts: make(map[string]*Draft)}
}

func (r *Registry) Create(invoiceType domain.InvoiceType) (*Draft, error) {
	d, err := NewDraft(invoiceType)
	if err != nil {
		return nil, err
	}
	r.drafts[d.ID] = d
	return d, nil
}

func (r *Registry) Get(id string) (*Draft, bool) {
	d, ok := r.drafts[id]
	return d, ok
}

func (r *Registry) Discard(id string) bool {
	if _, ok := r.drafts[id]; !ok {
		return false
	}
	delete(r.drafts, id)
	return true
}

func (r *Registry) Len() int {
	return len(r.drafts)
}
