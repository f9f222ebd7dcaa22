package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ows/internal/entity"
	"ows/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrRoleNotFound     = errors.New("role not found")
	ErrRoleInactive     = errors.New("role is inactive")
	ErrUserNotFound     = errors.New("user not found")
	ErrUnknownPermCodes = errors.New("unknown permission codes")
)

// Service aggregates a user's effective permission set from the coarse
// account role plus table-driven role assignments, with caching in front.
type Service struct {
	repo  model.Repository
	cache Cache
}

// NewService creates the permission service.
func NewService(repo model.Repository, cache Cache) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Service{repo: repo, cache: cache}
}

// GetPermissions returns the sorted effective permission codes for a user.
// Unknown users resolve to an empty set rather than an error.
func (s *Service) GetPermissions(ctx context.Context, userID uint) ([]string, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("rbac service not initialised")
	}
	if userID == 0 {
		return []string{}, nil
	}

	if cached, ok, err := s.cache.Get(ctx, userID); err == nil && ok {
		return cached, nil
	} else if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("permission cache read failed")
	}

	codes, err := s.computePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, userID, codes); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("permission cache write failed")
	}
	return codes, nil
}

func (s *Service) computePermissions(ctx context.Context, userID uint) ([]string, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	// Superusers hold the entire catalog regardless of assignments.
	if user.IsSuperuser() {
		codes := AllPermissionCodes()
		sort.Strings(codes)
		return codes, nil
	}

	set := make(map[string]struct{})
	for _, code := range LegacyGrants(user.Role) {
		set[code] = struct{}{}
	}

	assigned, err := s.repo.ListUserPermissionCodes(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	for _, code := range assigned {
		set[code] = struct{}{}
	}

	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

// HasPermission reports whether the user holds a single permission code.
func (s *Service) HasPermission(ctx context.Context, userID uint, code string) (bool, error) {
	codes, err := s.GetPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, held := range codes {
		if held == code {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyPermission reports whether the user holds at least one of the codes.
func (s *Service) HasAnyPermission(ctx context.Context, userID uint, codes ...string) (bool, error) {
	held, err := s.GetPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	set := make(map[string]struct{}, len(held))
	for _, code := range held {
		set[code] = struct{}{}
	}
	for _, code := range codes {
		if _, ok := set[code]; ok {
			return true, nil
		}
	}
	return false, nil
}

// HasAllPermissions reports whether the user holds every one of the codes.
func (s *Service) HasAllPermissions(ctx context.Context, userID uint, codes ...string) (bool, error) {
	held, err := s.GetPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	set := make(map[string]struct{}, len(held))
	for _, code := range held {
		set[code] = struct{}{}
	}
	for _, code := range codes {
		if _, ok := set[code]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// AssignRole grants a role to a user and drops the user's cached set.
// Re-assigning an already held role refreshes its expiry.
func (s *Service) AssignRole(ctx context.Context, userID uint, roleCode string, expiresAt *time.Time, assignedBy *uint) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("rbac service not initialised")
	}
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	role, err := s.repo.GetRoleByCode(ctx, roleCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	if !role.IsActive {
		return ErrRoleInactive
	}

	assignment := &entity.DbUserRole{
		UserID:     userID,
		RoleID:     role.ID,
		AssignedBy: assignedBy,
		ExpiresAt:  expiresAt,
	}
	if err := s.repo.AssignUserRole(ctx, assignment); err != nil {
		return err
	}
	return s.InvalidateUser(ctx, userID)
}

// RevokeRole removes a role from a user and drops the user's cached set.
func (s *Service) RevokeRole(ctx context.Context, userID uint, roleCode string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("rbac service not initialised")
	}
	role, err := s.repo.GetRoleByCode(ctx, roleCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	if err := s.repo.RevokeUserRole(ctx, userID, role.ID); err != nil {
		return err
	}
	return s.InvalidateUser(ctx, userID)
}

// SetRolePermissions replaces a role's grant set by permission code and
// drops every cached user set, since any user may hold the role.
func (s *Service) SetRolePermissions(ctx context.Context, roleID uint, codes []string, grantedBy *uint) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("rbac service not initialised")
	}
	perms, err := s.repo.FindPermissionsByCodes(ctx, codes)
	if err != nil {
		return err
	}
	if len(perms) != len(dedupe(codes)) {
		return ErrUnknownPermCodes
	}
	ids := make([]uint, 0, len(perms))
	for _, perm := range perms {
		ids = append(ids, perm.ID)
	}
	if err := s.repo.SetRolePermissions(ctx, roleID, ids, grantedBy); err != nil {
		return err
	}
	return s.InvalidateAll(ctx)
}

// InvalidateUser drops one user's cached permission set.
func (s *Service) InvalidateUser(ctx context.Context, userID uint) error {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("permission cache invalidate failed")
		return err
	}
	return nil
}

// InvalidateAll drops every cached permission set.
func (s *Service) InvalidateAll(ctx context.Context) error {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		logrus.WithError(err).Warn("permission cache flush failed")
		return err
	}
	return nil
}

func dedupe(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
