package users

import "time"

// User is the profile row created on first successful OTP verification.
type User struct {
	ID           string    `json:"id"`
	MobileNumber string    `json:"mobileNumber"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProfilePatch is a partial profile update. Nil fields are left unchanged;
// an empty string clears the field.
type ProfilePatch struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
}
