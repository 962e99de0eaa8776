package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookstore/internal/core"
	"bookstore/internal/logging"

	"github.com/go-chi/chi/v5"
)

// defaultRestockAmount matches the fixed increment of the original tool's
// restock button.
const defaultRestockAmount = 10

// handleStartReset kicks off the asynchronous reset and returns its ID.
func (s *Server) handleStartReset(w http.ResponseWriter, r *http.Request) {
	id, err := s.service.StartReset(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, r, map[string]string{"resetId": id})
}

// handleResetProgress reports the current phase of a reset.
func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.service.ResetProgress(chi.URLParam(r, "resetID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, progress)
}

// handleResetResult blocks until the reset finishes, then returns its outcome.
func (s *Server) handleResetResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.ResetResult(r.Context(), chi.URLParam(r, "resetID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, result)
}

// handleListBooks returns the catalog, filtered by the optional search term.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.service.ListBooks(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, books)
}

// restockRequest is the body of a restock command.
type restockRequest struct {
	Amount int `json:"amount"`
}

// handleRestock adds stock to one book.
func (s *Server) handleRestock(w http.ResponseWriter, r *http.Request) {
	req := restockRequest{Amount: defaultRestockAmount}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, r, errBadRequest("invalid request body"))
			return
		}
	}

	isbn := chi.URLParam(r, "isbn")
	if err := s.service.Restock(r.Context(), isbn, req.Amount); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"isbn": isbn, "added": req.Amount})
}

// handleListOrders returns all orders with derived payment status.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.service.ListOrders(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, orders)
}

// handleOrderItems returns the items of one order with subtotals.
func (s *Server) handleOrderItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.OrderItems(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, items)
}

// handleOrderTotal returns the sum of one order's item subtotals.
func (s *Server) handleOrderTotal(w http.ResponseWriter, r *http.Request) {
	total, err := s.service.OrderTotal(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{
		"total":    total,
		"currency": s.service.Meta().Currency,
	})
}

// handleReport returns the sales report as plain text.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.Report(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(report))
}

// handleExportReport writes the report file and returns its path.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	path, err := s.service.ExportReport(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]string{"path": path})
}

// handleStoreMeta returns the loaded snapshot's name and currency.
func (s *Server) handleStoreMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.Meta())
}

// badRequestError marks client errors so respondError maps them to 400.
type badRequestError string

func (e badRequestError) Error() string { return string(e) }

func errBadRequest(msg string) error { return badRequestError(msg) }

// respondError logs the technical error and writes a JSON error body with a
// status derived from the error kind.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	var badReq badRequestError
	switch {
	case errors.Is(err, core.ErrResetInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrResetNotFound), errors.Is(err, core.ErrBookNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount), errors.As(err, &badReq):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v and writes it; encoding failures are logged since the
// headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode", "error", err)
	}
}
