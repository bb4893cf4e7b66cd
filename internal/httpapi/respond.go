package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"vidstats/internal/services"
	"vidstats/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps error markers to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Page is the paginated list envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type pageRequest struct {
	number int
	size   int
}

func (p pageRequest) options() store.ListOptions {
	return store.ListOptions{Limit: p.size, Offset: (p.number - 1) * p.size}
}

// parsePage reads page and page_size. Missing values use the defaults;
// page_size is clamped to maxPageSize.
func parsePage(r *http.Request) (pageRequest, error) {
	req := pageRequest{number: 1, size: defaultPageSize}
	q := r.URL.Query()
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, errors.New("invalid page")
		}
		req.number = n
	}
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, errors.New("invalid page_size")
		}
		req.size = min(n, maxPageSize)
	}
	return req, nil
}

func pageLink(r *http.Request, number int) *string {
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
	if r.TLS != nil {
		u.Scheme = "https"
	}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(number))
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}

func buildPage[T any](r *http.Request, req pageRequest, results []T, total int) (Page[T], bool) {
	if results == nil {
		results = []T{}
	}
	if req.number > 1 && (req.number-1)*req.size >= total {
		return Page[T]{}, false
	}
	page := Page[T]{Count: total, Results: results}
	if req.number*req.size < total {
		page.Next = pageLink(r, req.number+1)
	}
	if req.number > 1 {
		page.Previous = pageLink(r, req.number-1)
	}
	return page, true
}

// servePaged runs list with the request's page window.
func servePaged[T any](w http.ResponseWriter, r *http.Request, list func(store.ListOptions) ([]T, int, error)) {
	req, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	results, total, err := list(req.options())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	page, ok := buildPage(r, req, results, total)
	if !ok {
		writeError(w, http.StatusNotFound, "invalid page")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// serveList writes every matching row as a bare array.
func serveList[T any](w http.ResponseWriter, list func(store.ListOptions) ([]T, int, error), opts store.ListOptions) {
	results, _, err := list(opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []T{}
	}
	writeJSON(w, http.StatusOK, results)
}
