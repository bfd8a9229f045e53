package enums

import "fmt"

// ReportKind names the exportable report projections.
type ReportKind string

const (
	ReportInventory ReportKind = "inventory"
	ReportSales     ReportKind = "sales"
	ReportPurchase  ReportKind = "purchase"
)

var validReportKinds = []ReportKind{
	ReportInventory,
	ReportSales,
	ReportPurchase,
}

func (k ReportKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ReportKind.
func (k ReportKind) IsValid() bool {
	for _, candidate := range validReportKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseReportKind converts raw input into a ReportKind.
func ParseReportKind(value string) (ReportKind, error) {
	for _, candidate := range validReportKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report kind %q", value)
}
