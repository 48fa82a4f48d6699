package api

import (
	"fmt"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/relvacode/iso8601"
)

// Date is an ISO 8601 date or date-time taken from a query parameter.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalParam(param string) error {
	if param == "" {
		return nil
	}
	t, err := iso8601.ParseString(param)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", param, err)
	}
	d.Time = t.UTC()
	return nil
}

// Ptr returns nil for a parameter that was not given.
func (d Date) Ptr() *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

type pageQuery struct {
	Limit  int `query:"limit" validate:"min=0,max=10000"`
	Offset int `query:"offset" validate:"min=0"`
}

func (q pageQuery) page(defaultLimit int) domain.Page {
	p := domain.Page{Limit: q.Limit, Offset: q.Offset}
	if p.Limit == 0 {
		p.Limit = defaultLimit
	}
	return p
}

type paginated[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func toPaginated[S, T any](p domain.Paginated[S], convert func(S) T) paginated[T] {
	items := make([]T, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, convert(item))
	}
	return paginated[T]{Items: items, Total: p.Total, Limit: p.Limit, Offset: p.Offset}
}
