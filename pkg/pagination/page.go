package pagination

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPage is returned when a page body is not a JSON object.
var ErrMalformedPage = errors.New("malformed page response")

// Item is one record of a collection, passed through as raw JSON.
type Item = json.RawMessage

// Pagination is the continuation block of a page response.
// Only HasNext drives the collector; the other fields are informational.
type Pagination struct {
	Page         int  `json:"page"`
	Limit        int  `json:"limit"`
	TotalRecords int  `json:"total_records"`
	TotalPages   int  `json:"total_pages"`
	HasNext      bool `json:"has_next"`
	HasPrev      bool `json:"has_prev"`
}

// PageResponse is one decoded page of a list endpoint.
type PageResponse struct {
	Success    bool
	Data       json.RawMessage
	Pagination *Pagination
}

// rawPage defers decoding of each field so that one bad field does not
// discard the whole page.
type rawPage struct {
	Success    json.RawMessage `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination"`
}

// DecodePage parses a page body. Only a body that is not a JSON object is an
// error; fields of the wrong type decode to their zero value.
func DecodePage(body []byte) (*PageResponse, error) {
	var raw rawPage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}

	page := &PageResponse{Data: raw.Data}

	if len(raw.Success) > 0 {
		// non-bool success counts as false
		_ = json.Unmarshal(raw.Success, &page.Success)
	}

	page.Pagination = decodePagination(raw.Pagination)

	return page, nil
}

// decodePagination reads has_next on its own so that a mistyped
// informational field cannot hide it. Anything but a JSON object yields nil.
func decodePagination(raw json.RawMessage) *Pagination {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil
	}

	var p Pagination
	// informational fields are best effort; the decoder keeps the ones that fit
	_ = json.Unmarshal(raw, &p)

	p.HasNext = false
	if v, ok := fields["has_next"]; ok {
		// non-bool has_next counts as false
		_ = json.Unmarshal(v, &p.HasNext)
	}
	return &p
}

// Items returns the page's records when the page reports success and data is
// a JSON array. Any other shape yields no items.
func (p *PageResponse) Items() []Item {
	if !p.Success || len(p.Data) == 0 {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(p.Data, &items); err != nil {
		return nil
	}
	return items
}

// HasNext reports whether the server announced another page.
// A missing pagination block counts as false.
func (p *PageResponse) HasNext() bool {
	return p.Pagination != nil && p.Pagination.HasNext
}
