package model

import (
	"io"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username            string    `gorm:"uniqueIndex;not null"`
	Email               string    `gorm:"uniqueIndex;not null"`
	FullName            string    `gorm:"not null"`
	PasswordHash        string    `gorm:"not null"`
	AvatarURL           string
	AvatarKey           string
	CoverImageURL       string
	CoverImageKey       string
	CurrentRefreshToken string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PublicUser is the sanitized view handed to the transport layer: no
// password hash, no refresh token, no storage keys.
type PublicUser struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	UserID       uuid.UUID
}

// Media is an object stored in the external media store. Key is what the
// store needs to delete it again; URL is what clients render.
type Media struct {
	URL string
	Key string
}

// FileUpload carries an incoming multipart file into the service layer
// without tying it to the HTTP framework.
type FileUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}
