package domain

import "time"

// Role is the role the identity provider assigned to a principal.
type Role string

const (
	RoleRequester   Role = "usuario"
	RoleModerator   Role = "moderador"
	RoleInstitution Role = "instituicao"
)

func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleModerator, RoleInstitution:
		return true
	}
	return false
}

// ApprovalStatus only carries meaning for institutions.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pendente"
	ApprovalApproved ApprovalStatus = "aprovada"
	ApprovalRejected ApprovalStatus = "rejeitada"
)

// Principal is a person or institution account.
type Principal struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	Role            Role           `json:"role"`
	ApprovalStatus  ApprovalStatus `json:"approvalStatus"`
	InstitutionName string         `json:"institutionName,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// DisplayName prefers the institution name for institution accounts.
func (p Principal) DisplayName() string {
	if p.Role == RoleInstitution && p.InstitutionName != "" {
		return p.InstitutionName
	}
	return p.Name
}

// CheckDelegationTarget reports whether p may receive delegated work.
func (p Principal) CheckDelegationTarget() error {
	if p.Role != RoleInstitution {
		return ValidationError{Reason: "principal " + p.ID + " is not an institution"}
	}
	if p.ApprovalStatus != ApprovalApproved {
		return ValidationError{Reason: "institution " + p.ID + " is not approved"}
	}
	return nil
}

// Actor is the authenticated caller of a core operation. It is passed
// explicitly to every operation.
type Actor struct {
	ID     string `json:"id"`
	Role   Role   `json:"role"`
	Origin string `json:"origin,omitempty"`
}

// Require fails with a PermissionError unless the actor holds role.
func (a Actor) Require(role Role, operation string) error {
	if a.ID == "" {
		return PermissionError{Reason: "anonymous actor cannot " + operation}
	}
	if a.Role != role {
		return PermissionError{Reason: "role " + string(a.Role) + " cannot " + operation}
	}
	return nil
}
