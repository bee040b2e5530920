package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/lcarchive/internal/adapters/archive"
	"github.com/okian/lcarchive/internal/adapters/export"
	service "github.com/okian/lcarchive/internal/app"
	"github.com/okian/lcarchive/internal/domain/lightcurve"
	"github.com/okian/lcarchive/pkg/logger"
)

// CurveHandler serves light-curve retrieval, export and plot shaping.
type CurveHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewCurveHandler creates a new light-curve handler.
func NewCurveHandler(deps Dependencies) *CurveHandler {
	return &CurveHandler{deps: deps}
}

type seriesResponse struct {
	TrainID int64               `json:"train_id"`
	Series  []lightcurve.Series `json:"series"`
}

// HandleLightCurve handles GET /objects/{id}/lightcurve.
func (h *CurveHandler) HandleLightCurve(w http.ResponseWriter, r *http.Request) {
	c, ok := h.retrieve(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

// HandleCSV handles GET /objects/{id}/lightcurve.csv.
func (h *CurveHandler) HandleCSV(w http.ResponseWriter, r *http.Request) {
	c, ok := h.retrieve(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, c); err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", err)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeCSV)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%d.csv", c.TrainID))
	_, _ = w.Write(buf.Bytes())
}

// HandleXLSX handles GET /objects/{id}/lightcurve.xlsx.
func (h *CurveHandler) HandleXLSX(w http.ResponseWriter, r *http.Request) {
	c, ok := h.retrieve(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, c); err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", err)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%d.xlsx", c.TrainID))
	_, _ = w.Write(buf.Bytes())
}

// HandlePlot handles GET /objects/{id}/plot.
func (h *CurveHandler) HandlePlot(w http.ResponseWriter, r *http.Request) {
	id, err := objectID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	q, err := parsePlotQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	opts, err := h.plotOptions(q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	series, err := h.deps.Plot(r.Context(), id, opts)
	if err != nil {
		h.fail(w, r, id, err)
		return
	}
	writeJSON(w, r, http.StatusOK, seriesResponse{TrainID: id, Series: series})
}

// HandleMerged handles GET /objects/{id}/merged.
func (h *CurveHandler) HandleMerged(w http.ResponseWriter, r *http.Request) {
	id, err := objectID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	q, err := parseMergeQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	series, err := h.deps.Merge(r.Context(), id, lightcurve.Normalization(q.How))
	if err != nil {
		h.fail(w, r, id, err)
		return
	}
	writeJSON(w, r, http.StatusOK, seriesResponse{TrainID: id, Series: series})
}

// retrieve parses the request and fetches the curve. It writes the error
// response itself and reports false on failure.
func (h *CurveHandler) retrieve(w http.ResponseWriter, r *http.Request) (*lightcurve.Curve, bool) {
	id, err := objectID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	q, err := parseCurveQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	bands, err := bandsOf(q.Bands)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	def := h.deps.Defaults()
	c, err := h.deps.LightCurve(r.Context(), id, service.RetrieveOptions{
		Bands:    bands,
		Clip:     boolOr(q.Clip, def.Clip),
		Datetime: boolOr(q.Datetime, def.Datetime),
	})
	if err != nil {
		h.fail(w, r, id, err)
		return nil, false
	}
	return c, true
}

func (h *CurveHandler) plotOptions(q plotQuery) (service.PlotOptions, error) {
	bands, err := bandsOf(q.Bands)
	if err != nil {
		return service.PlotOptions{}, err
	}
	norm, err := lightcurve.ParseNormalization(q.Normalize)
	if err != nil {
		return service.PlotOptions{}, err
	}
	from, err := timeOf(q.Start)
	if err != nil {
		return service.PlotOptions{}, err
	}
	to, err := timeOf(q.End)
	if err != nil {
		return service.PlotOptions{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return service.PlotOptions{}, fmt.Errorf("%w: end before start", ErrBadRequest)
	}
	return service.PlotOptions{
		Bands:     bands,
		Clip:      boolOr(q.Clip, h.deps.Defaults().Clip),
		Normalize: norm,
		From:      from,
		To:        to,
	}, nil
}

func (h *CurveHandler) fail(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, archive.ErrLightCurveNotFound) {
		h.logger.Error(r.Context(), "light curve missing for catalog object",
			logger.Int64("train_id", id),
			logger.String("request_id", GetRequestID(r.Context())),
			logger.Error(err),
		)
	}
	writeServiceError(w, r, err)
}
