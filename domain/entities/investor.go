package entities

import "time"

// Role is the capability set an identity carries
type Role string

const (
	RoleInvestor Role = "investor"
	RoleAdmin    Role = "admin"
)

// IsValid returns true for investor and admin
func (r Role) IsValid() bool {
	return r == RoleInvestor || r == RoleAdmin
}

// Investor is a registered platform account
type Investor struct {
	ID              int64      `db:"id"`
	Name            string     `db:"name"`
	Email           string     `db:"email"`
	Role            Role       `db:"role"`
	ProfileComplete bool       `db:"profile_complete"`
	Active          bool       `db:"active"`
	TermsAcceptedAt *time.Time `db:"terms_accepted_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// IsAdmin checks the investor's role
func (i *Investor) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// ProfileUpdate carries owner-editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	Name            *string
	Email           *string
	ProfileComplete *bool
}
