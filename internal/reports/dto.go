package reports

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRow is one product in the inventory snapshot export.
type InventoryRow struct {
	Code         string `csv:"code" json:"code"`
	Name         string `csv:"name" json:"name"`
	Category     string `csv:"category" json:"category"`
	Brand        string `csv:"brand" json:"brand"`
	Unit         string `csv:"unit" json:"unit"`
	StockQty     int    `csv:"stock_qty" json:"stock_qty"`
	MinStockQty  int    `csv:"min_stock_qty" json:"min_stock_qty"`
	CostPrice    string `csv:"cost_price" json:"cost_price"`
	SellingPrice string `csv:"selling_price" json:"selling_price"`
	StockValue   string `csv:"stock_value" json:"stock_value"`
	LowStock     bool   `csv:"low_stock" json:"low_stock"`
}

// SalesRow is one sales order in the sales export.
type SalesRow struct {
	Number    string `csv:"number" json:"number"`
	OrderDate string `csv:"order_date" json:"order_date"`
	Customer  string `csv:"customer" json:"customer"`
	Subtotal  string `csv:"subtotal" json:"subtotal"`
	GSTTotal  string `csv:"gst_total" json:"gst_total"`
	Discount  string `csv:"discount" json:"discount"`
	Total     string `csv:"total" json:"total"`
	Items     int    `csv:"items" json:"items"`
}

// PurchaseRow is one purchase order in the purchase export.
type PurchaseRow struct {
	Number    string `csv:"number" json:"number"`
	OrderDate string `csv:"order_date" json:"order_date"`
	Supplier  string `csv:"supplier" json:"supplier"`
	Subtotal  string `csv:"subtotal" json:"subtotal"`
	GSTTotal  string `csv:"gst_total" json:"gst_total"`
	Discount  string `csv:"discount" json:"discount"`
	Total     string `csv:"total" json:"total"`
	Items     int    `csv:"items" json:"items"`
}

// InventoryParams filters the inventory snapshot.
type InventoryParams struct {
	CategoryID *uuid.UUID
	LowStock   bool
}

// RangeParams bounds an order export by date and counterparty.
type RangeParams struct {
	From       *time.Time
	To         *time.Time
	SupplierID *uuid.UUID
	CustomerID *uuid.UUID
}
