package sql

import (
	"context"
	"testing"
	"time"

	"ows/internal/entity"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *GormRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&entity.DbUser{},
		&entity.DbRole{},
		&entity.DbPermission{},
		&entity.DbRolePermission{},
		&entity.DbUserRole{},
	); err != nil {
		t.Fatalf("migrate schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormRepository(db)
}

func seedRoleWithPermission(t *testing.T, repo *GormRepository, ctx context.Context, roleCode, permCode string, active bool) *entity.DbRole {
	t.Helper()

	role := &entity.DbRole{Code: roleCode, Name: roleCode, IsActive: active}
	if err := repo.CreateRole(ctx, role); err != nil {
		t.Fatalf("create role %s: %v", roleCode, err)
	}
	perm := &entity.DbPermission{Code: permCode, Module: "contents", Action: permCode}
	if err := repo.CreatePermission(ctx, perm); err != nil {
		t.Fatalf("create permission %s: %v", permCode, err)
	}
	if err := repo.SetRolePermissions(ctx, role.ID, []uint{perm.ID}, nil); err != nil {
		t.Fatalf("grant %s to %s: %v", permCode, roleCode, err)
	}
	return role
}

func TestListUserPermissionCodesExcludesExpiredAndInactive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	user := &entity.DbUser{Username: "nora", Email: "nora@example.com", PasswordHash: "x", Role: entity.UserRoleUser, IsActive: true}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	activeRole := seedRoleWithPermission(t, repo, ctx, "content_reader", "contents.read", true)
	timedRole := seedRoleWithPermission(t, repo, ctx, "content_writer", "contents.create", true)
	lapsedRole := seedRoleWithPermission(t, repo, ctx, "content_cleaner", "contents.delete", true)
	dormantRole := seedRoleWithPermission(t, repo, ctx, "media_manager", "media.manage", false)

	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)
	assignments := []entity.DbUserRole{
		{UserID: user.ID, RoleID: activeRole.ID},
		{UserID: user.ID, RoleID: timedRole.ID, ExpiresAt: &future},
		{UserID: user.ID, RoleID: lapsedRole.ID, ExpiresAt: &past},
		{UserID: user.ID, RoleID: dormantRole.ID},
	}
	for i := range assignments {
		if err := repo.AssignUserRole(ctx, &assignments[i]); err != nil {
			t.Fatalf("assign role %d: %v", assignments[i].RoleID, err)
		}
	}

	codes, err := repo.ListUserPermissionCodes(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("list permission codes: %v", err)
	}

	got := make(map[string]bool, len(codes))
	for _, code := range codes {
		got[code] = true
	}
	if !got["contents.read"] || !got["contents.create"] {
		t.Fatalf("expected permissions from active assignments, got %v", codes)
	}
	if got["contents.delete"] {
		t.Fatalf("expired assignment leaked its permission: %v", codes)
	}
	if got["media.manage"] {
		t.Fatalf("inactive role leaked its permission: %v", codes)
	}
	if len(codes) != 2 {
		t.Fatalf("expected exactly 2 codes, got %v", codes)
	}
}

func TestListUserPermissionCodesAtExactExpiryInstant(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	user := &entity.DbUser{Username: "omar", Email: "omar@example.com", PasswordHash: "x", Role: entity.UserRoleUser, IsActive: true}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	role := seedRoleWithPermission(t, repo, ctx, "content_reader", "contents.read", true)
	expiry := now
	if err := repo.AssignUserRole(ctx, &entity.DbUserRole{UserID: user.ID, RoleID: role.ID, ExpiresAt: &expiry}); err != nil {
		t.Fatalf("assign role: %v", err)
	}

	codes, err := repo.ListUserPermissionCodes(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("list permission codes: %v", err)
	}
	if len(codes) != 1 || codes[0] != "contents.read" {
		t.Fatalf("assignment should still be active at its exact expiry instant, got %v", codes)
	}

	later, err := repo.ListUserPermissionCodes(ctx, user.ID, now.Add(time.Second))
	if err != nil {
		t.Fatalf("list permission codes after expiry: %v", err)
	}
	if len(later) != 0 {
		t.Fatalf("assignment should have lapsed after its expiry, got %v", later)
	}
}

func TestListUserPermissionCodesDeduplicatesAcrossRoles(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	user := &entity.DbUser{Username: "pia", Email: "pia@example.com", PasswordHash: "x", Role: entity.UserRoleUser, IsActive: true}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	perm := &entity.DbPermission{Code: "contents.read", Module: "contents", Action: "read"}
	if err := repo.CreatePermission(ctx, perm); err != nil {
		t.Fatalf("create permission: %v", err)
	}
	for _, code := range []string{"content_reader", "content_reviewer"} {
		role := &entity.DbRole{Code: code, Name: code, IsActive: true}
		if err := repo.CreateRole(ctx, role); err != nil {
			t.Fatalf("create role %s: %v", code, err)
		}
		if err := repo.SetRolePermissions(ctx, role.ID, []uint{perm.ID}, nil); err != nil {
			t.Fatalf("grant to %s: %v", code, err)
		}
		if err := repo.AssignUserRole(ctx, &entity.DbUserRole{UserID: user.ID, RoleID: role.ID}); err != nil {
			t.Fatalf("assign %s: %v", code, err)
		}
	}

	codes, err := repo.ListUserPermissionCodes(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("list permission codes: %v", err)
	}
	if len(codes) != 1 || codes[0] != "contents.read" {
		t.Fatalf("expected a single deduplicated code, got %v", codes)
	}
}
