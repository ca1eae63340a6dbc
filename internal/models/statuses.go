package models

type UserStatus string
type UserRole string
type BroadcastTargetType string
type BroadcastPriority string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"

	UserRoleUser       UserRole = "user"
	UserRoleCreator    UserRole = "creator"
	UserRoleAgent      UserRole = "agent"
	UserRoleAdmin      UserRole = "admin"
	UserRoleSuperAdmin UserRole = "super_admin"

	BroadcastTargetAll        BroadcastTargetType = "all"
	BroadcastTargetRole       BroadcastTargetType = "role"
	BroadcastTargetIndividual BroadcastTargetType = "individual"

	BroadcastPriorityLow    BroadcastPriority = "low"
	BroadcastPriorityNormal BroadcastPriority = "normal"
	BroadcastPriorityHigh   BroadcastPriority = "high"
	BroadcastPriorityUrgent BroadcastPriority = "urgent"
)

// AllRoles lists every role known to the platform.
var AllRoles = []UserRole{
	UserRoleUser,
	UserRoleCreator,
	UserRoleAgent,
	UserRoleAdmin,
	UserRoleSuperAdmin,
}

// IsAdminTier reports whether the role grants access to the
// admin-notifications room.
func (r UserRole) IsAdminTier() bool {
	return r == UserRoleAdmin || r == UserRoleSuperAdmin
}

// Valid reports whether the role is one the platform knows.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleUser, UserRoleCreator, UserRoleAgent, UserRoleAdmin, UserRoleSuperAdmin:
		return true
	}
	return false
}
