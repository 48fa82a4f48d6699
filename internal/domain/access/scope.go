// Package access decides whose records a caller may query or modify.
package access

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCoach   Role = "COACH"
	RoleAthlete Role = "ATHLETE"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoach, RoleAthlete:
		return true
	}
	return false
}

// Supervisor reports whether the role has read access to other users' records.
func (r Role) Supervisor() bool {
	return r == RoleCoach || r == RoleAdmin
}

type Caller struct {
	ID   string
	Role Role
}

// ResolveScope returns the id of the subject a query issued by caller targets.
// Athletes are always pinned to themselves, whatever id they request.
// Coaches and admins get the requested subject when one is supplied.
func ResolveScope(caller Caller, requestedSubjectID string) string {
	if requestedSubjectID == "" || !caller.Role.Supervisor() {
		return caller.ID
	}
	return requestedSubjectID
}

// CanRead reports whether caller may read a record owned by ownerID.
func CanRead(caller Caller, ownerID string) bool {
	return caller.ID == ownerID || caller.Role.Supervisor()
}

// CanWrite reports whether caller may modify a record owned by ownerID.
// Supervisors have read-only visibility.
func CanWrite(caller Caller, ownerID string) bool {
	return caller.ID == ownerID
}
