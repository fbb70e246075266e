package models

// User identifies a participant by name. Two users with the same name are
// the same user, so User is a comparable value type usable as a map key.
type User struct {
	Name string
}

func (u User) String() string {
	return u.Name
}
