package rbac

import "github.com/karthikraju/granary-backend/pkg/enums"

// Permission identifies an operation as a resource.action pair.
type Permission string

const (
	ProductRead    Permission = "product.read"
	ProductCreate  Permission = "product.create"
	ProductUpdate  Permission = "product.update"
	ProductDelete  Permission = "product.delete"
	CatalogRead    Permission = "catalog.read"
	CatalogManage  Permission = "catalog.manage"
	SupplierRead   Permission = "supplier.read"
	SupplierManage Permission = "supplier.manage"
	CustomerRead   Permission = "customer.read"
	CustomerManage Permission = "customer.manage"
	PurchaseRead   Permission = "purchase.read"
	PurchaseCreate Permission = "purchase.create"
	SaleRead       Permission = "sale.read"
	SaleCreate     Permission = "sale.create"
	StockRead      Permission = "stock.read"
	StockAdjust    Permission = "stock.adjust"
	ReportView     Permission = "report.view"
	ReportExport   Permission = "report.export"
	SettingsRead   Permission = "settings.read"
	SettingsUpdate Permission = "settings.update"
	UserManage     Permission = "user.manage"
)

type permissionSet map[Permission]struct{}

func newSet(perms ...Permission) permissionSet {
	set := make(permissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

var readOnly = []Permission{
	ProductRead, CatalogRead, SupplierRead, CustomerRead,
	PurchaseRead, SaleRead, StockRead, ReportView, SettingsRead,
}

var managerGrants = append(append([]Permission{}, readOnly...),
	ProductCreate, ProductUpdate, ProductDelete,
	CatalogManage, SupplierManage, CustomerManage,
	PurchaseCreate, SaleCreate, StockAdjust, ReportExport,
)

var adminGrants = append(append([]Permission{}, managerGrants...),
	SettingsUpdate, UserManage,
)

// The policy is static per role: no dynamic or data-dependent grants.
var policy = map[enums.Role]permissionSet{
	enums.RoleSuperAdmin: newSet(adminGrants...),
	enums.RoleAdmin:      newSet(adminGrants...),
	enums.RoleManager:    newSet(managerGrants...),
	enums.RoleStoreUser:  newSet(append(append([]Permission{}, readOnly...), SaleCreate)...),
}

// Allowed reports whether the role may perform the operation.
func Allowed(role enums.Role, perm Permission) bool {
	set, ok := policy[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// PermissionsFor returns a copy of the role's grants, for presentation layers
// that need to render capability flags.
func PermissionsFor(role enums.Role) []Permission {
	set, ok := policy[role]
	if !ok {
		return nil
	}
	out := make([]Permission, 0, len(set))
	for perm := range set {
		out = append(out, perm)
	}
	return out
}
