package restaurants

import (
	"strings"
	"time"

	"qrmenu-backend/internal/domain/users"

	"github.com/google/uuid"
)

// Restaurant is the tenant entity. One restaurant per owner; the menu behind
// the QR token is managed elsewhere.
type Restaurant struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;uniqueIndex:idx_restaurants_user_id"`
	User   users.User

	Name    string `gorm:"not null"`
	Slug    string `gorm:"uniqueIndex:idx_restaurants_slug"`
	Address string

	// QRToken is the opaque id encoded in the printed QR code. Regenerating it
	// invalidates previously printed codes.
	QRToken string `gorm:"column:qr_token;uniqueIndex:idx_restaurants_qr_token"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewQRToken() string {
	return uuid.NewString()
}

// Slugify builds a URL-safe slug from a restaurant name. Collisions are
// resolved by the unique index; callers append a suffix and retry.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
