package domain

import "time"

// Role is the marketplace side an identity acts on.
type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleCustomer
}

// Identity is the authenticated user record held by a session.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Verified    bool   `json:"isVerified"`
}

// WellFormed reports whether the record can be adopted as a current identity.
// It does not re-validate the email format; that happens at the login boundary.
func (i *Identity) WellFormed() bool {
	return i != nil && i.ID != "" && i.DisplayName != "" && i.Email != "" && i.Role.Valid()
}

// Account is the backend-side record behind an identity.
type Account struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Verified     bool      `json:"isVerified"`
	Location     string    `json:"location,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity projects the account onto the session-facing record.
func (a *Account) Identity() *Identity {
	return &Identity{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Email:       a.Email,
		Role:        a.Role,
		Verified:    a.Verified,
	}
}
