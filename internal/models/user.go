package models

import "time"

type UserRole string
type Role = UserRole

const (
	RoleParent       UserRole = "parent"
	RolePsychologist UserRole = "psychologist"
	RoleAdmin        UserRole = "admin"
)

// User is the account resolved from the identity provider. Children taking
// tests are subjects owned by a user, not users themselves.
type User struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`

	AvatarURL *string `json:"avatar_url"`

	// Entitlements read from identity-provider properties
	PaidTests    []uint `json:"paid_tests,omitempty"`
	Subscription bool   `json:"subscription"`

	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) HasPaidTest(testID uint) bool {
	if u.Subscription {
		return true
	}
	for _, id := range u.PaidTests {
		if id == testID {
			return true
		}
	}
	return false
}
