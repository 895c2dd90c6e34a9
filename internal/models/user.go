package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	FullName         string    `json:"full_name"`
	Bio              string    `json:"bio"`
	ProfilePic       string    `json:"profile_pic"`
	NativeLanguage   string    `json:"native_language"`
	LearningLanguage string    `json:"learning_language"`
	Location         string    `json:"location"`
	IsOnboarded      bool      `json:"is_onboarded"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	FullName     string
	ProfilePic   string
}

// OnboardParams carries the profile fields a user must fill in before
// they show up in recommendations.
type OnboardParams struct {
	FullName         string
	Bio              string
	NativeLanguage   string
	LearningLanguage string
	Location         string
}

// UserCard is the slimmed-down user shape embedded in friend lists,
// recommendations and request listings.
type UserCard struct {
	ID               uuid.UUID `json:"id"`
	FullName         string    `json:"full_name"`
	ProfilePic       string    `json:"profile_pic"`
	NativeLanguage   string    `json:"native_language"`
	LearningLanguage string    `json:"learning_language"`
	Location         string    `json:"location"`
}
