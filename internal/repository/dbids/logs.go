package dbids

import (
	"context"
	"mime"
	"net/http"
	"time"

	"github.com/dbids-ops/dbids-console/entity"
)

// FetchLogs retrieves one page of query logs with the request's filters and
// sort applied.
func (c *Client) FetchLogs(ctx context.Context, req entity.PageRequest) (*entity.PageResult[entity.QueryLogRow], error) {
	raw, _, err := c.do(ctx, http.MethodGet, "/api/logs", encodePageQuery(req), nil)
	if err != nil {
		return nil, err
	}
	return decodePage[entity.QueryLogRow](raw, req)
}

// ExportFile is a downloaded CSV export.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ExportLogs downloads the CSV export for the same filter set a listing
// request would use. The filename comes from Content-Disposition when the
// backend supplies one.
func (c *Client) ExportLogs(ctx context.Context, req entity.PageRequest) (*ExportFile, error) {
	raw, headers, err := c.do(ctx, http.MethodGet, "/api/logs/export", encodePageQuery(req), nil)
	if err != nil {
		return nil, err
	}

	out := &ExportFile{
		Name:        exportFileName(headers.Get("Content-Disposition")),
		ContentType: headers.Get("Content-Type"),
		Data:        raw,
	}
	if out.ContentType == "" {
		out.ContentType = "text/csv; charset=utf-8"
	}
	return out, nil
}

func exportFileName(disposition string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	return "query_logs_" + time.Now().Format("2006-01-02-15-04-05") + ".csv"
}
