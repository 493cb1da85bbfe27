package domain

import "strings"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// placeholderName is what the sign-up form stores when no name is given
const placeholderName = "-"

type User struct {
	ID          int32  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	Role        Role   `json:"role"`
}

// HasCompleteName is false for an empty, blank or placeholder full name
func (u *User) HasCompleteName() bool {
	if u == nil {
		return false
	}
	name := strings.TrimSpace(u.FullName)
	return name != "" && name != placeholderName
}

// DisplayName falls back to the username when no full name is set
func (u *User) DisplayName() string {
	if u.HasCompleteName() {
		return strings.TrimSpace(u.FullName)
	}
	return u.Username
}

// Editable returns the fields a user can change on the profile form
func (u *User) Editable() EditableProfile {
	return EditableProfile{
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
	}
}

type RegisterRequest struct {
	Username    string `json:"username" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	Role        Role   `json:"role,omitempty" validate:"omitempty,oneof=customer admin"`
	FullName    string `json:"full_name,omitempty" validate:"max=100"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"max=20"`
	Address     string `json:"address,omitempty"`
}

// TokenResponse is the body of a successful sign-in
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        Role   `json:"role"`
	UserID      int32  `json:"user_id"`
}

type EditableProfile struct {
	Username    string
	Email       string
	FullName    string
	PhoneNumber string
	Address     string
}

// ProfileUpdate only carries the fields that changed.
type ProfileUpdate struct {
	Username    *string `json:"username,omitempty" validate:"omitempty,max=50"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName    *string `json:"full_name,omitempty" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,max=20"`
	Address     *string `json:"address,omitempty"`
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.FullName == nil && p.PhoneNumber == nil && p.Address == nil
}

// DiffProfile compares the edited form against the stored profile
func DiffProfile(current, edited EditableProfile) ProfileUpdate {
	var upd ProfileUpdate
	pick := func(before, after string) *string {
		if before == after {
			return nil
		}
		v := after
		return &v
	}
	upd.Username = pick(current.Username, edited.Username)
	upd.Email = pick(current.Email, edited.Email)
	upd.FullName = pick(current.FullName, edited.FullName)
	upd.PhoneNumber = pick(current.PhoneNumber, edited.PhoneNumber)
	upd.Address = pick(current.Address, edited.Address)
	return upd
}
