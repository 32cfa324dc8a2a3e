package model

// Permission names a single capability checked before an operation.
type Permission string

// Permissions.
const (
	PermViewItems        Permission = "view_items"
	PermViewStats        Permission = "view_stats"
	PermViewAchievements Permission = "view_achievements"
	PermViewLottery      Permission = "view_lottery"

	PermCreateItems Permission = "create_items"

	PermEditItems    Permission = "edit_items"
	PermEditOwnItems Permission = "edit_own_items"

	PermDeleteItems    Permission = "delete_items"
	PermDeleteOwnItems Permission = "delete_own_items"

	PermExportData Permission = "export_data"
	PermImportData Permission = "import_data"

	PermManageUsers      Permission = "manage_users"
	PermResetDatabase    Permission = "reset_database"
	PermViewUserActivity Permission = "view_user_activity"

	PermBulkOperations  Permission = "bulk_operations"
	PermAdvancedFilters Permission = "advanced_filters"
)

var viewPermissions = []Permission{
	PermViewItems, PermViewStats, PermViewAchievements, PermViewLottery,
}

var allPermissions = append(append([]Permission{}, viewPermissions...),
	PermCreateItems,
	PermEditItems, PermEditOwnItems,
	PermDeleteItems, PermDeleteOwnItems,
	PermExportData, PermImportData,
	PermManageUsers, PermResetDatabase, PermViewUserActivity,
	PermBulkOperations, PermAdvancedFilters,
)

var rolePermissions = map[string]map[Permission]bool{
	RoleAdmin: permissionSet(allPermissions...),
	RoleEditor: permissionSet(append(append([]Permission{}, viewPermissions...),
		PermCreateItems, PermEditItems, PermDeleteOwnItems,
		PermExportData, PermImportData, PermBulkOperations, PermAdvancedFilters,
	)...),
	RoleContributor: permissionSet(append(append([]Permission{}, viewPermissions...),
		PermCreateItems, PermEditOwnItems, PermDeleteOwnItems,
		PermExportData,
	)...),
	RoleViewer: permissionSet(append(append([]Permission{}, viewPermissions...),
		PermExportData,
	)...),
}

func permissionSet(perms ...Permission) map[Permission]bool {
	set := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		set[p] = true
	}
	return set
}

// Can reports whether role grants perm. Unknown roles grant nothing.
func Can(role string, perm Permission) bool {
	return rolePermissions[role][perm]
}

// NeedsApproval reports whether new items from role wait in the approval
// queue before joining the collection.
func NeedsApproval(role string) bool {
	return role == RoleContributor
}

// Permissions returns every permission in matrix order.
func Permissions() []Permission {
	return append([]Permission(nil), allPermissions...)
}
