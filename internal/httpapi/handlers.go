package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vidstats/internal/export"
	"vidstats/internal/logging"
	"vidstats/internal/store"
)

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// withID resolves the {id} segment and hands it to fn.
func withID(fn func(w http.ResponseWriter, r *http.Request, id int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		fn(w, r, id)
	}
}

func bind[T any](ctx context.Context, list func(context.Context, store.ListOptions) ([]T, int, error)) func(store.ListOptions) ([]T, int, error) {
	return func(opts store.ListOptions) ([]T, int, error) {
		return list(ctx, opts)
	}
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	serveList(w, bind(r.Context(), s.store.ListVideos), store.ListOptions{})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	serveList(w, bind(r.Context(), s.store.ListVideoStats), store.ListOptions{})
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	servePaged(w, r, bind(r.Context(), s.store.ListInteractions))
}

func (s *Server) handleMonthlyViews(w http.ResponseWriter, r *http.Request) {
	servePaged(w, r, bind(r.Context(), s.store.ListMonthlyViews))
}

func (s *Server) handleViewSessions(w http.ResponseWriter, r *http.Request) {
	servePaged(w, r, bind(r.Context(), s.store.ListViewSessions))
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	servePaged(w, r, bind(r.Context(), s.store.ListQuestions))
}

func (s *Server) handleAnswers(w http.ResponseWriter, r *http.Request) {
	servePaged(w, r, bind(r.Context(), s.store.ListAnswers))
}

func (s *Server) handleRatings(w http.ResponseWriter, r *http.Request) {
	serveList(w, bind(r.Context(), s.store.ListRatings), store.ListOptions{})
}

func (s *Server) handleVideoStats(w http.ResponseWriter, r *http.Request, id int64) {
	serveList(w, bind(r.Context(), s.store.ListVideoStats), store.ListOptions{VideoID: id})
}

func (s *Server) handleVideoInteractions(w http.ResponseWriter, r *http.Request, id int64) {
	serveList(w, bind(r.Context(), s.store.ListInteractions), store.ListOptions{VideoID: id})
}

func (s *Server) handleVideoMonthlyViews(w http.ResponseWriter, r *http.Request, id int64) {
	serveList(w, bind(r.Context(), s.store.ListMonthlyViews), store.ListOptions{VideoID: id})
}

func (s *Server) handleVideoViewSessions(w http.ResponseWriter, r *http.Request, id int64) {
	serveList(w, bind(r.Context(), s.store.ListViewSessions), store.ListOptions{VideoID: id})
}

func (s *Server) handleVideoQuestions(w http.ResponseWriter, r *http.Request, id int64) {
	serveList(w, bind(r.Context(), s.store.ListQuestions), store.ListOptions{VideoID: id})
}

// handleQuestionAnswers filters by upstream question id.
func (s *Server) handleQuestionAnswers(w http.ResponseWriter, r *http.Request, id int64) {
	serveList(w, bind(r.Context(), s.store.ListAnswers), store.ListOptions{QuestionID: id})
}

func (s *Server) handleVideoRatings(w http.ResponseWriter, r *http.Request, id int64) {
	serveList(w, bind(r.Context(), s.store.ListRatings), store.ListOptions{VideoID: id})
}

func (s *Server) handlePastTwoMonths(w http.ResponseWriter, r *http.Request) {
	report, err := s.exporter.PastTwoMonths(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request, id int64) {
	if s.upstream == nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch JSON data to export")
		return
	}
	body, err := export.VideoJSON(r.Context(), s.upstream, id)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "json export failed", "json_export_failed",
			logging.Int64(logging.FieldVideoID, id),
			logging.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to fetch JSON data to export")
		return
	}
	setAttachment(w, "application/json", export.JSONFilename(id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleExportMonth(all bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := export.ParseMonth(chi.URLParam(r, "start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.serveCSV(w, r, export.MonthlyRequest{Start: m, End: m, All: all})
	}
}

func (s *Server) handleExportRange(w http.ResponseWriter, r *http.Request) {
	req, ok := parseRange(w, r)
	if !ok {
		return
	}
	s.serveCSV(w, r, req)
}

func (s *Server) handleExportSingle(w http.ResponseWriter, r *http.Request, id int64) {
	req, ok := parseRange(w, r)
	if !ok {
		return
	}
	req.VideoID = id
	s.serveCSV(w, r, req)
}

func parseRange(w http.ResponseWriter, r *http.Request) (export.MonthlyRequest, bool) {
	start, err := export.ParseMonth(chi.URLParam(r, "start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return export.MonthlyRequest{}, false
	}
	end, err := export.ParseMonth(chi.URLParam(r, "end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return export.MonthlyRequest{}, false
	}
	return export.MonthlyRequest{Start: start, End: end}, true
}

// serveCSV streams the export. Headers are committed on the first byte so
// failures before any output still get a JSON error.
func (s *Server) serveCSV(w http.ResponseWriter, r *http.Request, req export.MonthlyRequest) {
	aw := &attachmentWriter{w: w, contentType: "text/csv; charset=utf-8", filename: req.Filename()}
	if err := s.exporter.WriteMonthlyCSV(r.Context(), aw, req); err != nil {
		if aw.started {
			logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "csv export aborted", "csv_export_failed",
				logging.String("file", req.Filename()),
				logging.Error(err),
			)
			return
		}
		writeError(w, statusFor(err), err.Error())
	}
}

func setAttachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}

type attachmentWriter struct {
	w           http.ResponseWriter
	contentType string
	filename    string
	started     bool
}

func (a *attachmentWriter) Write(p []byte) (int, error) {
	if !a.started {
		a.started = true
		setAttachment(a.w, a.contentType, a.filename)
		a.w.WriteHeader(http.StatusOK)
	}
	return a.w.Write(p)
}
