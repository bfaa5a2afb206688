package model

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidUsername = errors.New("username must be 3-30 letters, digits or underscores")
	ErrInvalidEmail    = errors.New("email is not valid")
	ErrPasswordTooWeak = errors.New("password must be at least 6 characters")
	ErrFullNameTooLong = errors.New("full name exceeds maximum length of 50 characters")
	ErrBioTooLong      = errors.New("bio exceeds maximum length of 150 characters")
)

const (
	minPasswordLength = 6
	maxFullNameLength = 50
	maxBioLength      = 150
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// User is an account. PasswordHash never leaves the service layer.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Bio          string
	Avatar       string
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the public projection embedded in videos, comments,
// likes and follow lists.
type UserSummary struct {
	ID         uuid.UUID
	Username   string
	FullName   string
	Avatar     string
	IsVerified bool
}

// NewUser validates registration input and returns an unsaved user.
// The caller supplies the already hashed password.
func NewUser(username, email, passwordHash, fullName string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)

	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(fullName) > maxFullNameLength {
		return nil, ErrFullNameTooLong
	}

	now := time.Now()
	return &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidatePassword checks the plaintext password policy before hashing.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooWeak
	}
	return nil
}

// ProfilePatch is a partial profile update; nil fields are left untouched.
type ProfilePatch struct {
	FullName *string
	Bio      *string
	Avatar   *string
}

// Apply validates and applies the patch. The user is unchanged on error.
func (u *User) Apply(p ProfilePatch) error {
	fullName, bio, avatar := u.FullName, u.Bio, u.Avatar
	if p.FullName != nil {
		fullName = strings.TrimSpace(*p.FullName)
	}
	if p.Bio != nil {
		bio = strings.TrimSpace(*p.Bio)
	}
	if p.Avatar != nil {
		avatar = strings.TrimSpace(*p.Avatar)
	}

	if len(fullName) > maxFullNameLength {
		return ErrFullNameTooLong
	}
	if len(bio) > maxBioLength {
		return ErrBioTooLong
	}

	u.FullName, u.Bio, u.Avatar = fullName, bio, avatar
	u.UpdatedAt = time.Now()
	return nil
}

// Summary returns the public projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		IsVerified: u.IsVerified,
	}
}
