package storage

import (
	"errors"
	"fmt"
	"slices"
)

// MaxManageableRoles caps the roles a single manager role may hand out.
const MaxManageableRoles = 32

// ErrTooManyRoles is returned when a manager would exceed MaxManageableRoles.
var ErrTooManyRoles = errors.New("too many manageable roles")

// ManageableRoles returns the roles managerRoleID may hand out, or nil.
func (s *Storage) ManageableRoles(guildID, managerRoleID string) ([]string, error) {
	r, err := s.record(guildID)
	if err != nil {
		return nil, err
	}
	return r.RoleManagers[managerRoleID], nil
}

// RoleManagers returns every manager role of the guild with its roles.
func (s *Storage) RoleManagers(guildID string) (map[string][]string, error) {
	r, err := s.record(guildID)
	if err != nil {
		return nil, err
	}
	if r.RoleManagers == nil {
		return map[string][]string{}, nil
	}
	return r.RoleManagers, nil
}

// SetManageableRoles replaces the roles of a manager. An empty list removes
// the manager.
func (s *Storage) SetManageableRoles(guildID, managerRoleID string, roles []string) error {
	if len(roles) > MaxManageableRoles {
		return fmt.Errorf("%w: %d > %d", ErrTooManyRoles, len(roles), MaxManageableRoles)
	}
	return s.update(guildID, func(r *Record) error {
		if len(roles) == 0 {
			delete(r.RoleManagers, managerRoleID)
			return nil
		}
		if r.RoleManagers == nil {
			r.RoleManagers = make(map[string][]string)
		}
		r.RoleManagers[managerRoleID] = slices.Clone(roles)
		return nil
	})
}

// ClearRoleManagers removes every manager of the guild.
func (s *Storage) ClearRoleManagers(guildID string) error {
	return s.update(guildID, func(r *Record) error {
		r.RoleManagers = nil
		return nil
	})
}

// CanManageRoles reports whether holders of heldRoles may hand out every
// role in roles through one or more of their manager roles.
func (s *Storage) CanManageRoles(guildID string, heldRoles, roles []string) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	managers, err := s.RoleManagers(guildID)
	if err != nil {
		return false, err
	}

	pending := slices.Clone(roles)
	for _, held := range heldRoles {
		manageable := managers[held]
		pending = slices.DeleteFunc(pending, func(id string) bool {
			return slices.Contains(manageable, id)
		})
		if len(pending) == 0 {
			return true, nil
		}
	}
	return false, nil
}
