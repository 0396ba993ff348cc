package dbids

import (
	"context"
	"net/http"

	"github.com/dbids-ops/dbids-console/entity"
)

// FetchEvents retrieves one page of detection events. The listing endpoint
// only understands page and size; any filters on the request are ignored by
// the backend and therefore not sent.
func (c *Client) FetchEvents(ctx context.Context, req entity.PageRequest) (*entity.PageResult[entity.DetectionEvent], error) {
	bare := entity.PageRequest{Page: req.Page, Size: req.Size}
	raw, _, err := c.do(ctx, http.MethodGet, "/api/events", encodePageQuery(bare), nil)
	if err != nil {
		return nil, err
	}
	return decodePage[entity.DetectionEvent](raw, bare)
}
