package controllers

import (
	"net/http"
	"strings"

	"github.com/karthikraju/granary-backend/api/responses"
	"github.com/karthikraju/granary-backend/api/validators"
	"github.com/karthikraju/granary-backend/internal/inventory"
	"github.com/karthikraju/granary-backend/pkg/enums"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
	"github.com/karthikraju/granary-backend/pkg/logger"
)

// AdjustStock applies a manual signed stock correction.
func AdjustStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body inventory.AdjustStockInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.ActorID = actor

		product, err := svc.AdjustStock(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// StockLedger lists stock movements newest first.
func StockLedger(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryLimit(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := queryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var reference *enums.StockReference
		if raw := strings.TrimSpace(r.URL.Query().Get("reference")); raw != "" {
			ref, err := enums.ParseStockReference(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reference filter"))
				return
			}
			reference = &ref
		}

		page, err := svc.Ledger(r.Context(), inventory.LedgerParams{
			Limit:     limit,
			Cursor:    strings.TrimSpace(r.URL.Query().Get("cursor")),
			ProductID: productID,
			Reference: reference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
