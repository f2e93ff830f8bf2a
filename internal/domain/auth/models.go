package auth

import "time"

// UserContext is the authenticated caller attached to a request.
type UserContext struct {
	UserID    int64
	RoleName  string
	SessionID string
}

func (u UserContext) IsAdmin() bool {
	return u.RoleName == RoleAdmin
}

type AuthUser struct {
	ID          int64
	Name        string
	Email       string
	RoleName    string
	Password    string
	MFAEnabled  bool
	MFASecretEn []byte
}

type SessionUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      SessionUser `json:"user"`
}

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}
