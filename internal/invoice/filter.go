package invoice

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"luxepos/internal/domain"
)

// ListFilter narrows the invoice list. Date bounds compare calendar days
// and are inclusive. A due-date bound excludes invoices without a due date.
type ListFilter struct {
	Number  string
	From    *time.Time
	To      *time.Time
	Type    domain.InvoiceType
	DueFrom *time.Time
	DueTo   *time.Time
	Status  domain.InvoiceStatus
}

// ParseDate accepts the loose date formats the invoice forms send.
func ParseDate(raw string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unrecognized date %q", ErrValidation, raw)
	}
	return t.UTC(), nil
}

func ParseListFilter(q url.Values) (ListFilter, error) {
	f := ListFilter{Number: strings.TrimSpace(q.Get("number"))}

	if raw := strings.TrimSpace(q.Get("type")); raw != "" && raw != "all" {
		f.Type = domain.InvoiceType(raw)
		if !f.Type.Valid() {
			return ListFilter{}, fmt.Errorf("%w: type must be sales or pawn", ErrValidation)
		}
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" && raw != "all" {
		f.Status = domain.InvoiceStatus(raw)
		if !f.Status.Valid() {
			return ListFilter{}, fmt.Errorf("%w: status must be paid, pending or overdue", ErrValidation)
		}
	}

	bounds := []struct {
		key string
		dst **time.Time
	}{
		{"from", &f.From},
		{"to", &f.To},
		{"due_from", &f.DueFrom},
		{"due_to", &f.DueTo},
	}
	for _, b := range bounds {
		raw := strings.TrimSpace(q.Get(b.key))
		if raw == "" {
			continue
		}
		t, err := ParseDate(raw)
		if err != nil {
			return ListFilter{}, err
		}
		*b.dst = &t
	}
	return f, nil
}

func (f ListFilter) Matches(inv domain.Invoice) bool {
	if f.Number != "" && !strings.Contains(strings.ToLower(inv.Number), strings.ToLower(f.Number)) {
		return false
	}
	if f.Type != "" && inv.Type != f.Type {
		return false
	}
	if f.Status != "" && inv.Status != f.Status {
		return false
	}
	if !withinDays(inv.Date, f.From, f.To) {
		return false
	}
	if f.DueFrom != nil || f.DueTo != nil {
		if inv.DueDate == nil || !withinDays(*inv.DueDate, f.DueFrom, f.DueTo) {
			return false
		}
	}
	return true
}

func Filter(invoices []domain.Invoice, f ListFilter) []domain.Invoice {
	out := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if f.Matches(inv) {
			out = append(out, inv)
		}
	}
	return out
}

func withinDays(t time.Time, from, to *time.Time) bool {
	d := day(t)
	if from != nil && d.Before(day(*from)) {
		return false
	}
	if to != nil && d.After(day(*to)) {
		return false
	}
	return true
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
