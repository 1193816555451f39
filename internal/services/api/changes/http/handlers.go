// Package http provides http transport for the change feed
package http

import (
	stdhttp "net/http"
	"time"

	"propwatch/internal/core/market"
	"propwatch/internal/modkit/httpkit"
	"propwatch/internal/services/api/changes/domain"
	changedom "propwatch/internal/services/changes/domain"
)

// Register mounts the change feed endpoint on the given router
func Register(r httpkit.Router, reader changedom.ReaderPort) {
	h := &handlers{reader: reader}

	// keyset-paged feed of change events
	httpkit.PostJSON[domain.ListInput](r, "/list", h.list)
}

type handlers struct{ reader changedom.ReaderPort }

// swagger:route POST /changes/list Changes changesList
// @Summary List change events ordered by (observed_at, id)
// @Tags Changes
// @Accept json
// @Produce json
// @Param payload body domain.ListInput true "Query"
// @Success 200 {object} domain.ListOutput "ok"
// @Router /changes/list [post]
func (h *handlers) list(r *stdhttp.Request, in domain.ListInput) (any, error) {
	q := changedom.ListInput{
		Location: in.Location,
		Limit:    in.Limit,
	}
	for _, t := range in.Types {
		q.Types = append(q.Types, market.ChangeType(t))
	}

	var err error
	if in.Since != "" {
		if q.Since, err = time.Parse(time.RFC3339, in.Since); err != nil {
			return nil, err
		}
	}
	if in.Until != "" {
		if q.Until, err = time.Parse(time.RFC3339, in.Until); err != nil {
			return nil, err
		}
	}
	if in.After != nil {
		at, err := time.Parse(time.RFC3339, in.After.ObservedAt)
		if err != nil {
			return nil, err
		}
		q.After = changedom.AfterKey{ObservedAt: at, ID: in.After.ID}
	}

	rows, next, err := h.reader.List(r.Context(), q)
	if err != nil {
		return nil, err
	}
	out := domain.ListOutput{Rows: rows}
	if len(rows) > 0 {
		out.Next = &next
	}
	return out, nil
}
