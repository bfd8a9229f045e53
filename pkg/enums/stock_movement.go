package enums

import "fmt"

// StockDirection records whether a stock movement added or removed units.
type StockDirection string

const (
	StockDirectionInbound  StockDirection = "inbound"
	StockDirectionOutbound StockDirection = "outbound"
)

func (d StockDirection) String() string {
	return string(d)
}

// IsValid reports whether the value is a known StockDirection.
func (d StockDirection) IsValid() bool {
	return d == StockDirectionInbound || d == StockDirectionOutbound
}

// StockReference names the workflow that caused a stock movement.
type StockReference string

const (
	StockReferencePurchase   StockReference = "purchase"
	StockReferenceSale       StockReference = "sale"
	StockReferenceAdjustment StockReference = "adjustment"
)

var validStockReferences = []StockReference{
	StockReferencePurchase,
	StockReferenceSale,
	StockReferenceAdjustment,
}

func (r StockReference) String() string {
	return string(r)
}

// IsValid reports whether the value is a known StockReference.
func (r StockReference) IsValid() bool {
	for _, candidate := range validStockReferences {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStockReference converts raw input into a StockReference.
func ParseStockReference(value string) (StockReference, error) {
	for _, candidate := range validStockReferences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock reference %q", value)
}
