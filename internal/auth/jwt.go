package auth

import (
	"errors"
	"slices"
	"time"

	"pos-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the staff token contents. Admin portal access implies every
// permission.
type Claims struct {
	StaffID     string       `json:"staff_id"`
	Email       string       `json:"email"`
	Portals     []Portal     `json:"portals"`
	Permissions []Permission `json:"permissions"`
	IsActive    bool         `json:"is_active"`
	jwt.RegisteredClaims
}

var _ Authorizer = (*Claims)(nil)

func (c *Claims) IsAuthenticated() bool {
	return c != nil && c.IsActive && c.StaffID != ""
}

func (c *Claims) HasPortalAccess(portal Portal) bool {
	if !c.IsAuthenticated() {
		return false
	}
	return slices.Contains(c.Portals, portal) || slices.Contains(c.Portals, PortalAdmin)
}

func (c *Claims) HasPermission(perm Permission) bool {
	if !c.IsAuthenticated() {
		return false
	}
	return slices.Contains(c.Permissions, perm) || slices.Contains(c.Portals, PortalAdmin)
}

type JWTManager struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	clock      timeutil.Clock
}

func NewJWTManager(secret, issuer string, expiration time.Duration, clock timeutil.Clock) *JWTManager {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &JWTManager{secret: []byte(secret), issuer: issuer, expiration: expiration, clock: clock}
}

// GenerateToken signs claims for a staff member
func (j *JWTManager) GenerateToken(staffID, email string, portals []Portal, perms []Permission) (string, error) {
	now := j.clock.Now()

	claims := &Claims{
		StaffID:     staffID,
		Email:       email,
		Portals:     portals,
		Permissions: perms,
		IsActive:    true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// ValidateToken verifies a JWT token and returns the claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer), jwt.WithTimeFunc(j.clock.Now))

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
