package status

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/PowerDNS/descstore/record"
	"github.com/PowerDNS/descstore/service"
	"github.com/PowerDNS/descstore/store"
)

const (
	defaultPageSize     = 50
	defaultHistoryLimit = 20
)

// API implements the JSON endpoints
type API struct {
	svc         *service.Service
	maxPageSize int
}

func (a *API) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageSize, err := intParam(q.Get("page_size"), defaultPageSize)
	if err != nil {
		writeError(w, &store.InvalidArgumentError{Arg: "page_size", Reason: err.Error()})
		return
	}
	if a.maxPageSize > 0 && pageSize > int64(a.maxPageSize) {
		writeError(w, &store.InvalidArgumentError{
			Arg:    "page_size",
			Reason: fmt.Sprintf("must not exceed %d", a.maxPageSize),
		})
		return
	}
	after, err := intParam(q.Get("after"), 0)
	if err != nil {
		writeError(w, &store.InvalidArgumentError{Arg: "after", Reason: err.Error()})
		return
	}
	dir, err := store.ParseDirection(q.Get("direction"))
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := a.svc.GetPage(r.Context(), int(pageSize), after, dir)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	d, err := a.svc.GetBySourceID(r.Context(), r.PathValue("source_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), defaultHistoryLimit)
	if err != nil {
		writeError(w, &store.InvalidArgumentError{Arg: "limit", Reason: err.Error()})
		return
	}
	h, err := a.svc.History(r.Context(), int(limit))
	if err != nil {
		writeError(w, err)
		return
	}
	if h == nil {
		h = []store.LoadHistory{}
	}
	writeJSON(w, http.StatusOK, h)
}

func (a *API) handleLoad(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "http-upload"
	}
	res, err := a.svc.LoadFromStream(r.Context(), name, r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func intParam(s string, def int64) (int64, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return v, nil
}

// statusCode maps errors to HTTP status codes
func statusCode(err error) int {
	var pe *record.ParseError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case store.IsInvalidArgument(err):
		return http.StatusBadRequest
	case store.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &pe):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusCode(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Debug("Writing HTTP response failed")
	}
}
