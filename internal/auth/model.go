package auth

import "time"

// AdminUsername is the account provisioned by EnsureAdmin.
const AdminUsername = "admin"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserSummary is what registration hands back to the client.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type RegisterInput struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	InviteCode string `json:"invite_code"`
}
