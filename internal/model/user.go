package model

import "time"

// User mirrors the 'users' table.  Clients are users whose role is one of
// ClientRoles; they may also carry a national id, birth date and gender.
// PasswordHash never leaves the server.
type User struct {
	ID           uint64     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	NationalID   *string    `json:"national_id,omitempty"`
	BirthDate    *Date      `json:"birth_date,omitempty"`
	Gender       *Gender    `json:"gender,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool { return u.Status == UserActive }
