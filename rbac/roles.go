package rbac

// Role represents a logical capability grouping for API callers.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RolePilot      Role = "pilot"
	RoleObserver   Role = "observer"
)

// AllRoles lists every known role.
var AllRoles = []Role{RoleAdmin, RoleDispatcher, RolePilot, RoleObserver}

// ParseRole reports whether s names a known role.
func ParseRole(s string) (Role, bool) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Permission represents an actionable verb within the API surface.
type Permission string

const (
	PermissionRequestRecommendation Permission = "recommend:request"
	PermissionViewLastResult        Permission = "recommend:view_last"
	PermissionViewRuleSets          Permission = "rulesets:view"
	PermissionViewHelipads          Permission = "helipads:view"
	PermissionManageHelipads        Permission = "helipads:manage"
)

// RoleMatrix enumerates which roles satisfy a permission. Observers may look
// but never ask for a recommendation.
var RoleMatrix = map[Permission][]Role{
	PermissionRequestRecommendation: {
		RoleAdmin,
		RoleDispatcher,
		RolePilot,
	},
	PermissionViewLastResult: {
		RoleAdmin,
		RoleDispatcher,
		RolePilot,
	},
	PermissionViewRuleSets: {
		RoleAdmin,
		RoleDispatcher,
		RolePilot,
		RoleObserver,
	},
	PermissionViewHelipads: {
		RoleAdmin,
		RoleDispatcher,
		RolePilot,
		RoleObserver,
	},
	PermissionManageHelipads: {
		RoleAdmin,
		RoleDispatcher,
	},
}
