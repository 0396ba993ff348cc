package dbids

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"

	errwrap "github.com/pkg/errors"

	"github.com/dbids-ops/dbids-console/entity"
)

// encodePageQuery renders one PageRequest as query parameters. url.Values
// encodes keys in sorted order, so identical requests always produce
// byte-identical query strings.
func encodePageQuery(req entity.PageRequest) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("size", strconv.Itoa(req.Size))
	if sort := req.Sort(); sort != "" {
		q.Set("sort", sort)
	}
	for name, values := range req.Filters {
		for _, v := range values {
			if v != "" {
				q.Add(name, v)
			}
		}
	}
	return q
}

// decodePage normalizes the two envelope shapes the backend produces: the
// PageResult object, and a bare array (treated as a single full page). Any
// field the envelope omits falls back to the request's own value.
func decodePage[T any](raw []byte, req entity.PageRequest) (*entity.PageResult[T], error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var content []T
		if err := json.Unmarshal(trimmed, &content); err != nil {
			return nil, errwrap.Wrap(err, "dbids.decodePage")
		}
		return &entity.PageResult[T]{
			Content:       content,
			Page:          0,
			Size:          len(content),
			TotalElements: int64(len(content)),
			TotalPages:    1,
		}, nil
	}

	var envelope struct {
		Content       []T    `json:"content"`
		Page          *int   `json:"page"`
		Size          *int   `json:"size"`
		TotalElements *int64 `json:"totalElements"`
		TotalPages    *int   `json:"totalPages"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, errwrap.Wrap(err, "dbids.decodePage")
	}

	out := &entity.PageResult[T]{
		Content:    envelope.Content,
		Page:       req.Page,
		Size:       req.Size,
		TotalPages: 1,
	}
	if out.Content == nil {
		out.Content = []T{}
	}
	if envelope.Page != nil {
		out.Page = *envelope.Page
	}
	if envelope.Size != nil {
		out.Size = *envelope.Size
	}
	if envelope.TotalPages != nil {
		out.TotalPages = *envelope.TotalPages
	}
	if envelope.TotalElements != nil {
		out.TotalElements = *envelope.TotalElements
	} else {
		out.TotalElements = int64(len(out.Content))
	}
	return out, nil
}
