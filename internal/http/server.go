// Package http exposes the ledger as a JSON API.
package http

import (
	"net/http"
	"time"

	"carteira/internal/auth"
	"carteira/internal/cache"
	"carteira/internal/core"
	"carteira/internal/middleware/trace"
	"carteira/internal/services"
)

type Server struct {
	ledger     *services.LedgerService
	statements *services.StatementService
	creds      auth.Verifier // nil disables authentication
	reports    *cache.Cache[core.MonthOverview]
}

func NewServer(ledger *services.LedgerService, statements *services.StatementService, creds auth.Verifier) *Server {
	return &Server{
		ledger:     ledger,
		statements: statements,
		creds:      creds,
		reports:    cache.New[core.MonthOverview](24, 30*time.Second),
	}
}

// Routes builds the full handler chain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("PATCH /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("GET /api/accounts/{id}/balance", s.handleAccountBalance)
	mux.HandleFunc("GET /api/accounts/{id}/statements", s.handleListStatements)

	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("PATCH /api/categories/{id}", s.handleUpdateCategory)

	mux.HandleFunc("POST /api/statements", s.handleUpsertStatement)
	mux.HandleFunc("GET /api/statements/{id}/total", s.handleStatementTotal)
	mux.HandleFunc("POST /api/statements/{id}/close", s.handleCloseStatement)
	mux.HandleFunc("POST /api/statements/{id}/reopen", s.handleReopenStatement)
	mux.HandleFunc("POST /api/statements/{id}/pay", s.handlePayStatement)
	mux.HandleFunc("DELETE /api/statements/{id}", s.handleDeleteStatement)

	mux.HandleFunc("POST /api/transactions", s.handleRecordTransaction)
	mux.HandleFunc("POST /api/transactions/preview", s.handlePreviewInstallments)
	mux.HandleFunc("POST /api/transactions/batch", s.handleRecordBatch)
	mux.HandleFunc("POST /api/transactions/settle", s.handleSettleTransactions)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/slips", s.handleGroupSlip)
	mux.HandleFunc("DELETE /api/slips/{id}", s.handleUngroupSlip)

	mux.HandleFunc("GET /api/reports/month", s.handleMonthReport)

	var handler http.Handler = mux
	if s.creds != nil {
		handler = s.basicAuth(handler)
	}
	return trace.Middleware(handler)
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Health stays open for probes.
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		username, password, ok := r.BasicAuth()
		if !ok || s.creds.Verify(username, password) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="carteira"`)
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
