package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/karthikraju/granary-backend/api/middleware"
	"github.com/karthikraju/granary-backend/api/responses"
	"github.com/karthikraju/granary-backend/internal/reports"
	"github.com/karthikraju/granary-backend/pkg/enums"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
	"github.com/karthikraju/granary-backend/pkg/logger"
	"github.com/karthikraju/granary-backend/pkg/rbac"
)

const csvContentType = "text/csv; charset=utf-8"

// Report serves a report projection as JSON, or as a CSV download when
// format=csv is requested.
func Report(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := enums.ParseReportKind(strings.TrimSpace(r.URL.Query().Get("kind")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid report kind"))
			return
		}

		var rows any
		switch kind {
		case enums.ReportInventory:
			categoryID, err := queryUUID(r, "category_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			lowStock, err := queryBool(r, "low_stock")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			rows, err = svc.Inventory(r.Context(), reports.InventoryParams{
				CategoryID: categoryID,
				LowStock:   lowStock,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		case enums.ReportSales, enums.ReportPurchase:
			params, err := rangeParams(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if kind == enums.ReportSales {
				rows, err = svc.Sales(r.Context(), params)
			} else {
				rows, err = svc.Purchases(r.Context(), params)
			}
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
			role := enums.Role(middleware.RoleFromContext(r.Context()))
			if !rbac.Allowed(role, rbac.ReportExport) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "permission denied"))
				return
			}
			payload, err := svc.RenderCSV(rows)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filename := fmt.Sprintf("%s-report-%s.csv", kind, time.Now().UTC().Format("20060102"))
			w.Header().Set("Content-Type", csvContentType)
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(payload)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func rangeParams(r *http.Request) (reports.RangeParams, error) {
	from, err := queryDate(r, "from")
	if err != nil {
		return reports.RangeParams{}, err
	}
	to, err := queryDate(r, "to")
	if err != nil {
		return reports.RangeParams{}, err
	}
	supplierID, err := queryUUID(r, "supplier_id")
	if err != nil {
		return reports.RangeParams{}, err
	}
	customerID, err := queryUUID(r, "customer_id")
	if err != nil {
		return reports.RangeParams{}, err
	}
	return reports.RangeParams{
		From:       from,
		To:         to,
		SupplierID: supplierID,
		CustomerID: customerID,
	}, nil
}
