package model

import "github.com/google/uuid"

type Role string

const (
	RoleBranch Role = "BRANCH"
	RoleAdmin  Role = "ADMIN"
	RoleViewer Role = "VIEWER"
)

// Actor is the authenticated caller. BranchID is set for BRANCH actors
// and binds them to their own branch; capability checks take the actor as
// an explicit parameter, never ambient request state.
type Actor struct {
	UserID   uuid.UUID
	Role     Role
	BranchID uuid.UUID // uuid.Nil unless Role is BRANCH
}

func (a Actor) IsBranch() bool { return a.Role == RoleBranch }
func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsViewer() bool { return a.Role == RoleViewer }

// OwnsBranch reports whether the actor may act on behalf of branchID.
func (a Actor) OwnsBranch(branchID uuid.UUID) bool {
	return a.IsBranch() && a.BranchID == branchID
}

// CanReadBranch reports whether the actor may read branchID's data.
func (a Actor) CanReadBranch(branchID uuid.UUID) bool {
	if a.IsAdmin() || a.IsViewer() {
		return true
	}
	return a.OwnsBranch(branchID)
}
