package entity

import "time"

// Session is a refresh-token session issued at login.
type Session struct {
	ID        string     // Refresh token value (64-character hex string)
	UserID    uint       // Owner of the session
	UserAgent string     // Client's User-Agent header at login
	IPAddress string     // Client's address at login
	CreatedAt time.Time  // Issue time
	ExpiresAt time.Time  // Hard expiry
	RevokedAt *time.Time // Set on logout, rotation or deactivation
}

// ExpiredAt reports whether the session has passed its expiry at now.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IsRevoked reports whether the session has been revoked.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsValidAt reports whether the session can still be exchanged at now.
func (s *Session) IsValidAt(now time.Time) bool {
	return !s.ExpiredAt(now) && !s.IsRevoked()
}

// IsValid is IsValidAt(time.Now()).
func (s *Session) IsValid() bool {
	return s.IsValidAt(time.Now())
}
