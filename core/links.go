package core

import (
	"time"

	"github.com/pkg/errors"
)

var ErrLinkNotFound = errors.New("link not found")

// Link ties a Google identity to a Moodle account.
type Link struct {
	GoogleEmail string    `json:"googleEmail"`
	Username    string    `json:"username"`
	LinkedAt    time.Time `json:"linkedAt"`
}

// LinkRepository persists Google-to-Moodle account links.
// Implementations are keyed by the (lowercased) Google email.
type LinkRepository interface {
	GetLink(googleEmail string) (Link, error)
	SaveLink(link Link) error
	AllLinks() ([]Link, error)
	DeleteLink(googleEmail string) error
}
