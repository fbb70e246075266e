// Package groups keeps the mapping from group names to their members.
package groups

import (
	"errors"
	"slices"

	"github.com/tallybot/tally/internal/models"
)

var (
	ErrGroupExists  = errors.New("group already exists")
	ErrNoSuchGroup  = errors.New("no such group")
	ErrMemberExists = errors.New("user already in group")
	ErrNoSuchMember = errors.New("user not in group")
)

// Directory maps group names to ordered member lists. Membership order is
// insertion order, which keeps expansion of group handles deterministic.
type Directory struct {
	members map[string][]models.User
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{members: make(map[string][]models.User)}
}

// RestoreDirectory rebuilds a directory from a stored snapshot.
func RestoreDirectory(members map[string][]models.User) *Directory {
	d := NewDirectory()
	for name, users := range members {
		d.members[name] = slices.Clone(users)
	}
	return d
}

// Create registers an empty group under the given name.
func (d *Directory) Create(name string) error {
	if _, ok := d.members[name]; ok {
		return ErrGroupExists
	}
	d.members[name] = nil
	return nil
}

// AddMember appends a user to an existing group.
func (d *Directory) AddMember(name string, user models.User) error {
	users, ok := d.members[name]
	if !ok {
		return ErrNoSuchGroup
	}
	if slices.Contains(users, user) {
		return ErrMemberExists
	}
	d.members[name] = append(users, user)
	return nil
}

// RemoveMember removes a user from an existing group.
func (d *Directory) RemoveMember(name string, user models.User) error {
	users, ok := d.members[name]
	if !ok {
		return ErrNoSuchGroup
	}
	i := slices.Index(users, user)
	if i < 0 {
		return ErrNoSuchMember
	}
	d.members[name] = slices.Delete(users, i, i+1)
	return nil
}

// Members returns the members of a group in insertion order, nil when the
// group does not exist. An unknown group handle inside an expense therefore
// contributes no participants.
func (d *Directory) Members(name string) []models.User {
	return slices.Clone(d.members[name])
}

// Snapshot returns a copy of the whole directory for persistence.
func (d *Directory) Snapshot() map[string][]models.User {
	out := make(map[string][]models.User, len(d.members))
	for name, users := range d.members {
		out[name] = slices.Clone(users)
	}
	return out
}
