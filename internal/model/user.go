package model

// User is the persisted user document. Timestamps are UTC epoch seconds;
// RefreshToken is empty until the first login and holds the single active
// refresh token afterwards.
type User struct {
	ID                  string
	Name                string
	Email               string
	PasswordHash        string
	RefreshToken        string
	MaxRefreshTokenMins int
	APIQuota            int
	CreatedAt           int64
	UpdatedAt           int64
}
