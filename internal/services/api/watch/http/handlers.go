// Package http provides http transport for the watch admin surface
package http

import (
	stdhttp "net/http"

	"propwatch/internal/modkit/httpkit"
	perr "propwatch/internal/platform/errors"
	"propwatch/internal/services/api/watch/domain"
	watchdom "propwatch/internal/services/watch/domain"
)

// Register mounts watch admin endpoints on the given router
func Register(r httpkit.Router, enq watchdom.EnqueuerPort, status watchdom.StatusPort) {
	h := &handlers{enq: enq, status: status}

	// queue an immediate cycle
	httpkit.PostJSON[domain.SweepInput](r, "/sweep", h.sweep)

	// per-location cycle state
	httpkit.Get(r, "/status", h.statuses)
}

type handlers struct {
	enq    watchdom.EnqueuerPort
	status watchdom.StatusPort
}

// swagger:route POST /watch/sweep Watch watchSweep
// @Summary Queue an immediate cycle for one location
// @Tags Watch
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.SweepInput true "Target"
// @Success 200 {object} domain.SweepOutput "queued"
// @Failure 409 {object} domain.SweepOutput "already pending"
// @Router /watch/sweep [post]
func (h *handlers) sweep(r *stdhttp.Request, in domain.SweepInput) (any, error) {
	id, created, err := h.enq.EnqueueSweep(r.Context(), in.Location)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, perr.Conflictf("sweep %s already pending for %s", id, in.Location)
	}
	return domain.SweepOutput{ID: id, Location: in.Location}, nil
}

// swagger:route GET /watch/status Watch watchStatus
// @Summary Per-location cycle state
// @Tags Watch
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.StatusView "ok"
// @Router /watch/status [get]
func (h *handlers) statuses(r *stdhttp.Request) (any, error) {
	rows, err := h.status.Statuses(r.Context())
	if err != nil {
		return nil, err
	}
	out := make([]domain.StatusView, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.NewStatusView(row))
	}
	return out, nil
}
