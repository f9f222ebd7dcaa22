package rbac

import (
	"context"
	"errors"

	"ows/internal/entity"
	"ows/internal/model"

	"gorm.io/gorm"
)

type roleSeed struct {
	Role            entity.DbRole
	PermissionCodes []string
}

// Seed ensures the permission catalog and the built-in system roles exist.
// It is idempotent: existing permissions are left alone and existing roles
// keep whatever grant set an administrator has tuned.
func Seed(ctx context.Context, repo model.Repository) error {
	if repo == nil {
		return nil
	}

	existing, err := repo.ListPermissions(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(existing))
	for _, perm := range existing {
		known[perm.Code] = struct{}{}
	}
	for _, perm := range PermissionCatalog() {
		if _, ok := known[perm.Code]; ok {
			continue
		}
		p := perm
		if err := repo.CreatePermission(ctx, &p); err != nil {
			return err
		}
	}

	for _, seed := range buildSystemRoleSeeds() {
		_, err := repo.GetRoleByCode(ctx, seed.Role.Code)
		switch {
		case err == nil:
			continue
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := createSeedRole(ctx, repo, seed); err != nil {
				return err
			}
		default:
			return err
		}
	}
	return nil
}

func createSeedRole(ctx context.Context, repo model.Repository, seed roleSeed) error {
	role := seed.Role
	if err := repo.CreateRole(ctx, &role); err != nil {
		return err
	}
	if len(seed.PermissionCodes) == 0 {
		return nil
	}
	perms, err := repo.FindPermissionsByCodes(ctx, seed.PermissionCodes)
	if err != nil {
		return err
	}
	ids := make([]uint, 0, len(perms))
	for _, perm := range perms {
		ids = append(ids, perm.ID)
	}
	return repo.SetRolePermissions(ctx, role.ID, ids, nil)
}

func buildSystemRoleSeeds() []roleSeed {
	return []roleSeed{
		{
			Role: entity.DbRole{
				Code:        "admin",
				Name:        "Administrator",
				Description: "Full access to every module",
				IsSystem:    true,
				IsActive:    true,
			},
			PermissionCodes: AllPermissionCodes(),
		},
		{
			Role: entity.DbRole{
				Code:        "editor",
				Name:        "Editor",
				Description: "Creates and publishes editorial content",
				IsSystem:    true,
				IsActive:    true,
			},
			PermissionCodes: LegacyGrants(entity.UserRoleEditor),
		},
		{
			Role: entity.DbRole{
				Code:        "viewer",
				Name:        "Viewer",
				Description: "Read-only access to published material",
				IsSystem:    true,
				IsActive:    true,
			},
			PermissionCodes: LegacyGrants(entity.UserRoleUser),
		},
	}
}
