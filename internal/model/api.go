package model

import "time"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type DetectRequest struct {
	Base64 string `json:"base64"`
}

type UserResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	MaxRefreshTokenMins int    `json:"maxRefreshTokenMins"`
	CreatedAt           string `json:"createdAt"`
	UpdatedAt           string `json:"updatedAt"`
}

type ImageResponse struct {
	ID        string   `json:"id"`
	Base64    string   `json:"base64"`
	Access    []string `json:"access"`
	Faces     int      `json:"faces,omitempty"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// FormatTimestamp renders a stored epoch-second timestamp as ISO-8601 for
// responses.
func FormatTimestamp(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		MaxRefreshTokenMins: u.MaxRefreshTokenMins,
		CreatedAt:           FormatTimestamp(u.CreatedAt),
		UpdatedAt:           FormatTimestamp(u.UpdatedAt),
	}
}

func NewImageResponse(img *Image, faces int) ImageResponse {
	return ImageResponse{
		ID:        img.ID,
		Base64:    img.Base64,
		Access:    img.Access,
		Faces:     faces,
		CreatedAt: FormatTimestamp(img.CreatedAt),
		UpdatedAt: FormatTimestamp(img.UpdatedAt),
	}
}
