package enums

// NotificationKind classifies in-app notifications.
type NotificationKind string

const (
	NotificationLowStock        NotificationKind = "low_stock"
	NotificationPurchaseCreated NotificationKind = "purchase_created"
	NotificationSaleCreated     NotificationKind = "sale_created"
)

func (k NotificationKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known NotificationKind.
func (k NotificationKind) IsValid() bool {
	switch k {
	case NotificationLowStock, NotificationPurchaseCreated, NotificationSaleCreated:
		return true
	default:
		return false
	}
}
