package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/pkg/httpmiddleware"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = apperr.Validation("invalid request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps an error kind to its HTTP status and client message.
func errorStatus(err error) (int, string) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrUnavailable):
		status = http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError, "internal server error"
	}
	msg, ok := apperr.Message(err)
	if !ok {
		msg = http.StatusText(status)
	}
	return status, msg
}

// fail writes err as an {"error"} response. Unclassified errors are logged
// and hidden from the client.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}
	httpmiddleware.WriteError(w, status, msg)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

// decodeOptional is decode for requests whose body may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, apperr.Validation(name + " must be a positive integer")
	}
	return n, nil
}

func queryDecimal(r *http.Request, name string) (*decimal.Decimal, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, apperr.Validation(name + " must be a number")
	}
	return &d, nil
}

func pagination(r *http.Request) (page, limit int, err error) {
	if page, err = queryInt(r, "page"); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit"); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

type message struct {
	Message string `json:"message"`
}

// listResponse is the envelope of every collection response.
type listResponse[T any] struct {
	Results int `json:"results"`
	Page    int `json:"page,omitempty"`
	Limit   int `json:"limit,omitempty"`
	Total   int `json:"total"`
	Data    []T `json:"data"`
}

func newList[S, D any](items []S, conv func(*S) D) listResponse[D] {
	data := make([]D, len(items))
	for i := range items {
		data[i] = conv(&items[i])
	}
	return listResponse[D]{Results: len(data), Total: len(data), Data: data}
}

func newPage[S, D any](items []S, total, page, limit int, conv func(*S) D) listResponse[D] {
	l := newList(items, conv)
	l.Total, l.Page, l.Limit = total, page, limit
	return l
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
