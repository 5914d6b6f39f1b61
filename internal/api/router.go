package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/points-ledger/internal/api/httpx"
	"github.com/baharkarakas/points-ledger/internal/api/validate"
	"github.com/baharkarakas/points-ledger/internal/config"
	"github.com/baharkarakas/points-ledger/internal/ledger"
	"github.com/baharkarakas/points-ledger/internal/metrics"
	"github.com/baharkarakas/points-ledger/internal/middleware"
	"github.com/baharkarakas/points-ledger/internal/models"
)

type amountReq struct {
	Amount int64 `json:"amount"`
}

// NewRouter wires the HTTP surface of the ledger. authMW may be nil;
// the point API is then open (dev setups, tests).
func NewRouter(cfg config.Config, svc *ledger.Service, authMW *middleware.AuthMiddleware) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/point", func(r chi.Router) {
		if authMW != nil {
			r.Use(authMW.Auth)
		}

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if ef := validate.Required("id", id); ef != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request", validate.Errs{*ef})
				return
			}
			httpx.WriteJSON(w, http.StatusOK, svc.Balance(id))
		})

		r.Get("/{id}/histories", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if ef := validate.Required("id", id); ef != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request", validate.Errs{*ef})
				return
			}
			entries := svc.History(id)
			if entries == nil {
				entries = []models.HistoryEntry{}
			}
			httpx.WriteJSON(w, http.StatusOK, entries)
		})

		r.Patch("/{id}/charge", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			idem := r.Header.Get("Idempotency-Key")
			var req amountReq
			if err := httpx.DecodeJSON(r, &req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
				return
			}
			b, err := svc.ChargeIdem(id, req.Amount, idem)
			if err != nil {
				writeLedgerError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, b)
		})

		r.Patch("/{id}/use", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			idem := r.Header.Get("Idempotency-Key")
			var req amountReq
			if err := httpx.DecodeJSON(r, &req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
				return
			}
			if ef := validate.Positive("amount", req.Amount); ef != nil {
				httpx.WriteError(w, http.StatusBadRequest, "invalid_amount", ledger.ErrInvalidAmount.Error(), validate.Errs{*ef})
				return
			}
			b, err := svc.UseIdem(id, req.Amount, idem)
			if err != nil {
				writeLedgerError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, b)
		})
	})

	return r
}

func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
	case errors.Is(err, ledger.ErrInsufficientBalance):
		httpx.WriteError(w, http.StatusConflict, "insufficient_balance", err.Error(), nil)
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
