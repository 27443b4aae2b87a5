package auth

import (
	"testing"
	"time"

	"pos-backend/internal/timeutil"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	clock := timeutil.NewFixedClock(time.Date(2024, 4, 15, 9, 0, 0, 0, time.UTC))
	m := NewJWTManager("secret", "pos-backend", time.Hour, clock)

	token, err := m.GenerateToken("staff-1", "cashier@example.com", []Portal{PortalCashier}, []Permission{PermReceiptWrite})
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error: %v", err)
	}
	if claims.StaffID != "staff-1" || !claims.IsAuthenticated() {
		t.Errorf("claims = %+v", claims)
	}

	clock.Advance(2 * time.Hour)
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted an expired token")
	}
}

func TestJWTManager_RejectsForeignTokens(t *testing.T) {
	clock := timeutil.NewFixedClock(time.Date(2024, 4, 15, 9, 0, 0, 0, time.UTC))
	other := NewJWTManager("other-secret", "pos-backend", time.Hour, clock)
	token, err := other.GenerateToken("staff-1", "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	m := NewJWTManager("secret", "pos-backend", time.Hour, clock)
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted a token signed with another secret")
	}

	wrongIssuer := NewJWTManager("secret", "someone-else", time.Hour, clock)
	token, _ = wrongIssuer.GenerateToken("staff-1", "", nil, nil)
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted a token from another issuer")
	}
}

func TestClaims_Authorizer(t *testing.T) {
	cashier := &Claims{
		StaffID:     "s1",
		IsActive:    true,
		Portals:     []Portal{PortalCashier},
		Permissions: []Permission{PermReceiptWrite, PermWalletRead},
	}
	admin := &Claims{StaffID: "s2", IsActive: true, Portals: []Portal{PortalAdmin}}
	suspended := &Claims{StaffID: "s3", IsActive: false, Permissions: []Permission{PermReceiptWrite}}

	tests := []struct {
		name   string
		a      Authorizer
		portal Portal
		perm   Permission
		want   bool
	}{
		{"cashier own permission", cashier, PortalCashier, PermReceiptWrite, true},
		{"cashier lacks sweep", cashier, PortalCashier, PermSweepRun, false},
		{"admin implies all", admin, PortalStaff, PermSweepRun, true},
		{"suspended denied", suspended, PortalCashier, PermReceiptWrite, false},
		{"anonymous denied", Anonymous{}, PortalCashier, PermReceiptWrite, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.HasPortalAccess(tt.portal) && tt.a.HasPermission(tt.perm); got != tt.want {
				t.Errorf("access = %v, want %v", got, tt.want)
			}
		})
	}

	if cashier.HasPortalAccess(PortalAdmin) {
		t.Error("cashier has admin portal access")
	}
}
