package rbac

import "ows/internal/entity"

// permissionCatalog is the closed set of grantable capabilities. Codes are
// "<module>.<action>" and must stay stable once granted to roles.
var permissionCatalog = []entity.DbPermission{
	{Code: "contents.create", Name: "Create contents", Module: "contents", Action: "create"},
	{Code: "contents.read", Name: "Read contents", Module: "contents", Action: "read"},
	{Code: "contents.update", Name: "Update contents", Module: "contents", Action: "update"},
	{Code: "contents.delete", Name: "Delete contents", Module: "contents", Action: "delete"},
	{Code: "contents.publish", Name: "Publish contents", Module: "contents", Action: "publish"},

	{Code: "categories.create", Name: "Create categories", Module: "categories", Action: "create"},
	{Code: "categories.read", Name: "Read categories", Module: "categories", Action: "read"},
	{Code: "categories.update", Name: "Update categories", Module: "categories", Action: "update"},
	{Code: "categories.delete", Name: "Delete categories", Module: "categories", Action: "delete"},

	{Code: "tags.create", Name: "Create tags", Module: "tags", Action: "create"},
	{Code: "tags.read", Name: "Read tags", Module: "tags", Action: "read"},
	{Code: "tags.delete", Name: "Delete tags", Module: "tags", Action: "delete"},

	{Code: "media.upload", Name: "Upload media", Module: "media", Action: "upload"},
	{Code: "media.read", Name: "Read media", Module: "media", Action: "read"},
	{Code: "media.update", Name: "Update media", Module: "media", Action: "update"},
	{Code: "media.delete", Name: "Delete media", Module: "media", Action: "delete"},
	{Code: "media.manage", Name: "Manage media library", Module: "media", Action: "manage"},

	{Code: "products.create", Name: "Create products", Module: "products", Action: "create"},
	{Code: "products.read", Name: "Read products", Module: "products", Action: "read"},
	{Code: "products.update", Name: "Update products", Module: "products", Action: "update"},
	{Code: "products.delete", Name: "Delete products", Module: "products", Action: "delete"},

	{Code: "orders.create", Name: "Create orders", Module: "orders", Action: "create"},
	{Code: "orders.read", Name: "Read orders", Module: "orders", Action: "read"},
	{Code: "orders.update", Name: "Update orders", Module: "orders", Action: "update"},

	{Code: "users.create", Name: "Create users", Module: "users", Action: "create"},
	{Code: "users.read", Name: "Read users", Module: "users", Action: "read"},
	{Code: "users.update", Name: "Update users", Module: "users", Action: "update"},
	{Code: "users.delete", Name: "Delete users", Module: "users", Action: "delete"},

	{Code: "roles.read", Name: "Read roles", Module: "roles", Action: "read"},
	{Code: "roles.manage", Name: "Manage roles", Module: "roles", Action: "manage"},
	{Code: "roles.assign", Name: "Assign roles", Module: "roles", Action: "assign"},

	{Code: "settings.read", Name: "Read settings", Module: "settings", Action: "read"},
	{Code: "settings.manage", Name: "Manage settings", Module: "settings", Action: "manage"},
}

// legacyTierGrants maps the coarse account roles onto permission codes. The
// admin tier is not listed: superusers receive the full catalog.
var legacyTierGrants = map[string][]string{
	entity.UserRoleEditor: {
		"contents.create",
		"contents.read",
		"contents.update",
		"contents.publish",
		"media.upload",
		"media.delete",
		"products.read",
	},
	entity.UserRoleUser: {
		"contents.read",
		"products.read",
	},
}

// PermissionCatalog returns a copy of the full catalog.
func PermissionCatalog() []entity.DbPermission {
	out := make([]entity.DbPermission, len(permissionCatalog))
	copy(out, permissionCatalog)
	return out
}

// AllPermissionCodes returns every catalog code in declaration order.
func AllPermissionCodes() []string {
	codes := make([]string, 0, len(permissionCatalog))
	for _, perm := range permissionCatalog {
		codes = append(codes, perm.Code)
	}
	return codes
}

// LegacyGrants returns the permission codes implied by a coarse account
// role. Unknown roles carry no implicit grants.
func LegacyGrants(role string) []string {
	grants, ok := legacyTierGrants[role]
	if !ok {
		return nil
	}
	out := make([]string, len(grants))
	copy(out, grants)
	return out
}
