// Package auth turns bearer tokens into authorization decisions. The engine
// never manages staff identities; it only asks an Authorizer.
package auth

// Portal is a surface of the product a staff member may use
type Portal string

const (
	PortalStaff   Portal = "staff"
	PortalCashier Portal = "cashier"
	PortalAdmin   Portal = "admin"
)

// Permission is a fine-grained grant checked per route
type Permission string

const (
	PermWalletRead   Permission = "wallet.read"
	PermWalletWrite  Permission = "wallet.write"
	PermWalletPost   Permission = "wallet.post"
	PermCostWrite    Permission = "cost.write"
	PermReceiptWrite Permission = "receipt.write"
	PermBookingWrite Permission = "booking.write"
	PermSweepRun     Permission = "sweep.run"
)

// Authorizer answers access questions about the current caller.
type Authorizer interface {
	IsAuthenticated() bool
	HasPortalAccess(portal Portal) bool
	HasPermission(perm Permission) bool
}

// Anonymous denies everything.
type Anonymous struct{}

func (Anonymous) IsAuthenticated() bool         { return false }
func (Anonymous) HasPortalAccess(Portal) bool   { return false }
func (Anonymous) HasPermission(Permission) bool { return false }
