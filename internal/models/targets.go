package models

// TargetTag labels a broadcast audience group. A recipient's role maps to
// one or more tags; a broadcast carries the tags it is aimed at.
type TargetTag string

const (
	TargetTagAll                       TargetTag = "all"
	TargetTagUsers                     TargetTag = "users"
	TargetTagCreators                  TargetTag = "creators"
	TargetTagAgents                    TargetTag = "agents"
	TargetTagEntertainmentProfessional TargetTag = "entertainment_professionals"
	TargetTagAdmins                    TargetTag = "admins"
	TargetTagSuperAdmins               TargetTag = "super_admins"
)

// TargetTagsForRole returns the audience tags a role belongs to. The table
// is fixed; the server filter and the live client filter must agree on it.
// Note super_admin is also a member of "admins" so admin-targeted broadcasts
// reach super admins as well.
func TargetTagsForRole(role UserRole) []TargetTag {
	switch role {
	case UserRoleUser:
		return []TargetTag{TargetTagUsers}
	case UserRoleCreator:
		return []TargetTag{TargetTagCreators}
	case UserRoleAgent:
		return []TargetTag{TargetTagAgents, TargetTagEntertainmentProfessional}
	case UserRoleAdmin:
		return []TargetTag{TargetTagAdmins}
	case UserRoleSuperAdmin:
		return []TargetTag{TargetTagSuperAdmins, TargetTagAdmins}
	default:
		return nil
	}
}

// PrimaryTargetTag is the tag a role-targeted broadcast carries for the
// given role. It is the role's own group, not the expanded membership set.
func PrimaryTargetTag(role UserRole) TargetTag {
	switch role {
	case UserRoleUser:
		return TargetTagUsers
	case UserRoleCreator:
		return TargetTagCreators
	case UserRoleAgent:
		return TargetTagAgents
	case UserRoleAdmin:
		return TargetTagAdmins
	case UserRoleSuperAdmin:
		return TargetTagSuperAdmins
	default:
		return ""
	}
}

// RoleMatchesTargets reports whether a recipient with the given role is in
// the audience of a broadcast carrying targets. An empty target list and the
// "all" tag both mean everyone.
func RoleMatchesTargets(role UserRole, targets []TargetTag) bool {
	if len(targets) == 0 {
		return true
	}
	tags := TargetTagsForRole(role)
	for _, t := range targets {
		if t == TargetTagAll {
			return true
		}
		for _, tag := range tags {
			if t == tag {
				return true
			}
		}
	}
	return false
}
