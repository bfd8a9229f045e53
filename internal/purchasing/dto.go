package purchasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karthikraju/granary-backend/pkg/db/models"
	"github.com/karthikraju/granary-backend/pkg/enums"
)

// PurchaseLineInput is one requested line of a purchase order.
type PurchaseLineInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Qty       int             `json:"qty" validate:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreatePurchaseOrderInput carries everything needed to record a purchase.
type CreatePurchaseOrderInput struct {
	SupplierID uuid.UUID           `json:"supplier_id" validate:"required"`
	OrderDate  *time.Time          `json:"order_date"`
	Lines      []PurchaseLineInput `json:"lines" validate:"required,min=1,dive"`
	Discount   decimal.Decimal     `json:"discount"`
	Notes      string              `json:"notes"`
	ActorID    uuid.UUID           `json:"-"`
}

// PurchaseItemDTO is the transport shape of one purchased line.
type PurchaseItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductCode string          `json:"product_code,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Qty         int             `json:"qty"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	GSTRate     decimal.Decimal `json:"gst_rate"`
	GSTAmount   decimal.Decimal `json:"gst_amount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// PurchaseOrderDTO is the transport shape of a purchase order with its lines.
type PurchaseOrderDTO struct {
	ID           uuid.UUID         `json:"id"`
	Number       string            `json:"number"`
	SupplierID   uuid.UUID         `json:"supplier_id"`
	SupplierName string            `json:"supplier_name,omitempty"`
	OrderDate    time.Time         `json:"order_date"`
	Status       enums.OrderStatus `json:"status"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	GSTTotal     decimal.Decimal   `json:"gst_total"`
	Discount     decimal.Decimal   `json:"discount"`
	Total        decimal.Decimal   `json:"total"`
	Notes        *string           `json:"notes,omitempty"`
	CreatedBy    uuid.UUID         `json:"created_by"`
	Items        []PurchaseItemDTO `json:"items"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ListParams filters and paginates the purchase order list.
type ListParams struct {
	Limit      int
	Cursor     string
	SupplierID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// Page is one page of purchase orders.
type Page struct {
	Items      []PurchaseOrderDTO `json:"items"`
	NextCursor *string            `json:"next_cursor,omitempty"`
}

func orderFromModel(m *models.PurchaseOrder) *PurchaseOrderDTO {
	if m == nil {
		return nil
	}
	dto := &PurchaseOrderDTO{
		ID:         m.ID,
		Number:     m.Number,
		SupplierID: m.SupplierID,
		OrderDate:  m.OrderDate,
		Status:     m.Status,
		Subtotal:   m.Subtotal,
		GSTTotal:   m.GSTTotal,
		Discount:   m.Discount,
		Total:      m.Total,
		Notes:      m.Notes,
		CreatedBy:  m.CreatedBy,
		Items:      make([]PurchaseItemDTO, 0, len(m.Items)),
		CreatedAt:  m.CreatedAt,
	}
	if m.Supplier != nil {
		dto.SupplierName = m.Supplier.Name
	}
	for i := range m.Items {
		item := &m.Items[i]
		itemDTO := PurchaseItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Qty:       item.Qty,
			UnitCost:  item.UnitCost,
			GSTRate:   item.GSTRate,
			GSTAmount: item.GSTAmount,
			LineTotal: item.LineTotal,
		}
		if item.Product != nil {
			itemDTO.ProductCode = item.Product.Code
			itemDTO.ProductName = item.Product.Name
		}
		dto.Items = append(dto.Items, itemDTO)
	}
	return dto
}
