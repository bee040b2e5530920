package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/okian/lcarchive/internal/domain/band"
)

var validate = validator.New()

// curveQuery holds the query string of the light-curve routes.
type curveQuery struct {
	Bands    string `validate:"omitempty,max=64"`
	Clip     string `validate:"omitempty,oneof=true false 1 0"`
	Datetime string `validate:"omitempty,oneof=true false 1 0"`
}

// plotQuery holds the query string of GET /objects/{id}/plot.
type plotQuery struct {
	Bands     string `validate:"omitempty,max=64"`
	Clip      string `validate:"omitempty,oneof=true false 1 0"`
	Normalize string `validate:"omitempty,oneof=none mean median"`
	Start     string `validate:"omitempty,max=64"`
	End       string `validate:"omitempty,max=64"`
}

// mergeQuery holds the query string of GET /objects/{id}/merged.
type mergeQuery struct {
	How string `validate:"omitempty,oneof=mean median"`
}

func checkQuery(q any) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func parseCurveQuery(r *http.Request) (curveQuery, error) {
	v := r.URL.Query()
	q := curveQuery{
		Bands:    v.Get("bands"),
		Clip:     strings.ToLower(v.Get("clip")),
		Datetime: strings.ToLower(v.Get("datetime")),
	}
	return q, checkQuery(q)
}

func parsePlotQuery(r *http.Request) (plotQuery, error) {
	v := r.URL.Query()
	q := plotQuery{
		Bands:     v.Get("bands"),
		Clip:      strings.ToLower(v.Get("clip")),
		Normalize: strings.ToLower(v.Get("normalize")),
		Start:     v.Get("start"),
		End:       v.Get("end"),
	}
	return q, checkQuery(q)
}

func parseMergeQuery(r *http.Request) (mergeQuery, error) {
	q := mergeQuery{How: strings.ToLower(r.URL.Query().Get("how"))}
	return q, checkQuery(q)
}

// objectID reads the {id} path parameter.
func objectID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: train_id %q is not an integer", ErrBadRequest, raw)
	}
	return id, nil
}

// boolOr parses an already validated flag, falling back to def when empty.
func boolOr(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

// bandsOf parses a comma separated band list. Empty means every band.
func bandsOf(s string) ([]band.Band, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return band.ParseList(s)
}

// timeOf parses a calendar time in any layout dateparse understands. Times
// without a zone are UTC. Empty gives the zero time.
func timeOf(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot parse time %q", ErrBadRequest, s)
	}
	return t.UTC(), nil
}
