package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"finviz/internal/core"
	applog "finviz/internal/log"
)

// Ledger is the service surface the handlers need.
// *services.TransactionService satisfies it.
type Ledger interface {
	AddTransaction(ctx context.Context, amount, date, description, category string) (core.Transaction, error)
	DeleteAll(ctx context.Context) error
	Search(query string) core.Collection
	Summary() core.Summary
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w, r)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ServiceUnavailableError("backend not reachable").Write(w, r)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w, r)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	results := s.ledger.Search(query)
	NewJSONResponse().Body(newTransactionListJSON(query, results)).Write(w, r)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	in, err := ParseTransactionInput(r)
	if err != nil {
		logger.WarnContext(ctx, "Unreadable transaction body", applog.FieldError, err)
		if errors.Is(err, ErrBodyTooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w, r)
			return
		}
		BadRequestError(err.Error()).Write(w, r)
		return
	}

	tx, err := s.ledger.AddTransaction(ctx, in.Amount, in.Date, in.Description, in.Category)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			logger.InfoContext(ctx, "Transaction rejected",
				applog.NewFields().WithOperation(applog.OpValidate).WithError(err).ToSlice()...)
			ValidationErrorResponse(err).Write(w, r)
			return
		}
		logger.ErrorContext(ctx, "Failed to add transaction",
			applog.NewFields().WithOperation(applog.OpAppend).WithError(err).ToSlice()...)
		InternalServerError("failed to save transaction").Write(w, r)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Body(newTransactionJSON(tx)).Write(w, r)
}

func (s *Server) handleDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteAll(r.Context()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to clear transactions",
			applog.NewFields().WithOperation(applog.OpClear).WithError(err).ToSlice()...)
		InternalServerError("failed to delete transactions").Write(w, r)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w, r)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(newSummaryJSON(s.ledger.Summary())).Write(w, r)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(newMonthlyJSON(s.ledger.Summary().ByMonth)).Write(w, r)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(newCategoriesJSON(s.ledger.Summary().ByCategory)).Write(w, r)
}
