package rbac

import (
	"context"
	"sort"
	"testing"
	"time"

	"ows/internal/entity"
	"ows/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubRepo implements the slice of the repository the permission service
// touches. Unimplemented methods panic via the embedded nil interface.
type stubRepo struct {
	model.Repository

	users         map[uint]*entity.DbUser
	roles         map[string]*entity.DbRole
	assignedCodes map[uint][]string
	permsByCode   map[string]entity.DbPermission

	userLookups   int
	assignments   []entity.DbUserRole
	revoked       [][2]uint
	roleGrantSets map[uint][]uint
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:         make(map[uint]*entity.DbUser),
		roles:         make(map[string]*entity.DbRole),
		assignedCodes: make(map[uint][]string),
		permsByCode:   make(map[string]entity.DbPermission),
		roleGrantSets: make(map[uint][]uint),
	}
}

func (s *stubRepo) GetUserByID(_ context.Context, id uint) (*entity.DbUser, error) {
	s.userLookups++
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubRepo) ListUserPermissionCodes(_ context.Context, userID uint, _ time.Time) ([]string, error) {
	return s.assignedCodes[userID], nil
}

func (s *stubRepo) GetRoleByCode(_ context.Context, code string) (*entity.DbRole, error) {
	role, ok := s.roles[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return role, nil
}

func (s *stubRepo) AssignUserRole(_ context.Context, assignment *entity.DbUserRole) error {
	s.assignments = append(s.assignments, *assignment)
	return nil
}

func (s *stubRepo) RevokeUserRole(_ context.Context, userID, roleID uint) error {
	s.revoked = append(s.revoked, [2]uint{userID, roleID})
	return nil
}

func (s *stubRepo) FindPermissionsByCodes(_ context.Context, codes []string) ([]entity.DbPermission, error) {
	var out []entity.DbPermission
	seen := make(map[string]struct{})
	for _, code := range codes {
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		if perm, ok := s.permsByCode[code]; ok {
			out = append(out, perm)
		}
	}
	return out, nil
}

func (s *stubRepo) SetRolePermissions(_ context.Context, roleID uint, permissionIDs []uint, _ *uint) error {
	s.roleGrantSets[roleID] = permissionIDs
	return nil
}

func TestGetPermissionsSuperuser(t *testing.T) {
	repo := newStubRepo()
	repo.users[1] = &entity.DbUser{ID: 1, Role: entity.UserRoleAdmin}
	svc := NewService(repo, nil)

	codes, err := svc.GetPermissions(context.Background(), 1)
	require.NoError(t, err)

	expected := AllPermissionCodes()
	sort.Strings(expected)
	require.Equal(t, expected, codes)
}

func TestGetPermissionsUnionsLegacyAndAssigned(t *testing.T) {
	repo := newStubRepo()
	repo.users[2] = &entity.DbUser{ID: 2, Role: entity.UserRoleEditor}
	repo.assignedCodes[2] = []string{"orders.read", "contents.read"}
	svc := NewService(repo, nil)

	codes, err := svc.GetPermissions(context.Background(), 2)
	require.NoError(t, err)

	require.Contains(t, codes, "contents.create")
	require.Contains(t, codes, "orders.read")
	require.NotContains(t, codes, "users.delete")
	require.True(t, sort.StringsAreSorted(codes))

	// contents.read appears in both sources but only once in the union.
	count := 0
	for _, code := range codes {
		if code == "contents.read" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestGetPermissionsUnknownUserIsEmptyAndCached(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)

	codes, err := svc.GetPermissions(context.Background(), 99)
	require.NoError(t, err)
	require.Empty(t, codes)
	require.NotNil(t, codes)

	lookups := repo.userLookups
	_, err = svc.GetPermissions(context.Background(), 99)
	require.NoError(t, err)
	require.Equal(t, lookups, repo.userLookups, "second call should be served from cache")
}

func TestGetPermissionsUsesCache(t *testing.T) {
	repo := newStubRepo()
	repo.users[3] = &entity.DbUser{ID: 3, Role: entity.UserRoleUser}
	svc := NewService(repo, nil)

	_, err := svc.GetPermissions(context.Background(), 3)
	require.NoError(t, err)
	lookups := repo.userLookups

	_, err = svc.GetPermissions(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, lookups, repo.userLookups)
}

func TestAssignRoleInvalidatesCache(t *testing.T) {
	repo := newStubRepo()
	repo.users[4] = &entity.DbUser{ID: 4, Role: entity.UserRoleUser}
	repo.roles["support"] = &entity.DbRole{ID: 10, Code: "support", IsActive: true}
	svc := NewService(repo, nil)

	codes, err := svc.GetPermissions(context.Background(), 4)
	require.NoError(t, err)
	require.NotContains(t, codes, "orders.read")

	repo.assignedCodes[4] = []string{"orders.read"}
	require.NoError(t, svc.AssignRole(context.Background(), 4, "support", nil, nil))
	require.Len(t, repo.assignments, 1)

	codes, err = svc.GetPermissions(context.Background(), 4)
	require.NoError(t, err)
	require.Contains(t, codes, "orders.read")
}

func TestAssignRoleErrors(t *testing.T) {
	repo := newStubRepo()
	repo.users[5] = &entity.DbUser{ID: 5, Role: entity.UserRoleUser}
	repo.roles["dormant"] = &entity.DbRole{ID: 11, Code: "dormant", IsActive: false}
	svc := NewService(repo, nil)

	err := svc.AssignRole(context.Background(), 999, "dormant", nil, nil)
	require.ErrorIs(t, err, ErrUserNotFound)

	err = svc.AssignRole(context.Background(), 5, "missing", nil, nil)
	require.ErrorIs(t, err, ErrRoleNotFound)

	err = svc.AssignRole(context.Background(), 5, "dormant", nil, nil)
	require.ErrorIs(t, err, ErrRoleInactive)
}

func TestRevokeRoleInvalidatesCache(t *testing.T) {
	repo := newStubRepo()
	repo.users[6] = &entity.DbUser{ID: 6, Role: entity.UserRoleUser}
	repo.roles["support"] = &entity.DbRole{ID: 12, Code: "support", IsActive: true}
	repo.assignedCodes[6] = []string{"orders.read"}
	svc := NewService(repo, nil)

	codes, err := svc.GetPermissions(context.Background(), 6)
	require.NoError(t, err)
	require.Contains(t, codes, "orders.read")

	repo.assignedCodes[6] = nil
	require.NoError(t, svc.RevokeRole(context.Background(), 6, "support"))
	require.Len(t, repo.revoked, 1)

	codes, err = svc.GetPermissions(context.Background(), 6)
	require.NoError(t, err)
	require.NotContains(t, codes, "orders.read")
}

func TestSetRolePermissionsRejectsUnknownCodes(t *testing.T) {
	repo := newStubRepo()
	repo.permsByCode["contents.read"] = entity.DbPermission{ID: 1, Code: "contents.read"}
	svc := NewService(repo, nil)

	err := svc.SetRolePermissions(context.Background(), 1, []string{"contents.read", "nope.nothing"}, nil)
	require.ErrorIs(t, err, ErrUnknownPermCodes)

	err = svc.SetRolePermissions(context.Background(), 1, []string{"contents.read", "contents.read"}, nil)
	require.NoError(t, err)
	require.Equal(t, []uint{1}, repo.roleGrantSets[1])
}

func TestHasPermissionHelpers(t *testing.T) {
	repo := newStubRepo()
	repo.users[7] = &entity.DbUser{ID: 7, Role: entity.UserRoleUser}
	svc := NewService(repo, nil)
	ctx := context.Background()

	ok, err := svc.HasPermission(ctx, 7, "contents.read")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.HasPermission(ctx, 7, "users.delete")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.HasAnyPermission(ctx, 7, "users.delete", "products.read")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.HasAllPermissions(ctx, 7, "contents.read", "products.read")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.HasAllPermissions(ctx, 7, "contents.read", "users.delete")
	require.NoError(t, err)
	require.False(t, ok)
}
