// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Counsellor roles carried in access tokens.
const (
	RoleL2         = "l2"
	RoleL3         = "l3"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
	RoleAnalyser   = "analyser"
	RoleSuperAdmin = "superadmin"
	RoleTO         = "to"
)

// Identity represents the authenticated counsellor.
// Handlers read it instead of poking at gin context keys.
type Identity interface {
	// CounsellorID returns the authenticated counsellor's ID (CNS-XXXXXXXX).
	CounsellorID() string
	// Role returns the counsellor's role.
	Role() string
	// HasRole reports whether the counsellor has any of the given roles.
	HasRole(roles ...string) bool
	// IsAuthenticated returns true if a valid token was presented.
	IsAuthenticated() bool
}

type identity struct {
	counsellorID  string
	role          string
	authenticated bool
}

func (i *identity) CounsellorID() string { return i.counsellorID }

func (i *identity) Role() string { return i.role }

func (i *identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if r == i.role {
			return true
		}
	}
	return false
}

func (i *identity) IsAuthenticated() bool { return i.authenticated }

// NewIdentity builds an authenticated identity. Used by tests and background jobs.
func NewIdentity(counsellorID, role string) Identity {
	return &identity{counsellorID: counsellorID, role: role, authenticated: true}
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if counsellor info is not present.
func GetIdentity(c *gin.Context) Identity {
	raw, ok := c.Get(ContextCounsellorIDKey)
	if !ok {
		return &identity{}
	}
	id, ok := raw.(string)
	if !ok || id == "" {
		return &identity{}
	}
	role := c.GetString(ContextRoleKey)
	return &identity{counsellorID: id, role: role, authenticated: true}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the counsellor is not authenticated, it aborts with 401 and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
