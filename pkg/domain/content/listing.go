package content

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending     = "pending"
	StatusApproved    = "approved"
	StatusUnderReview = "under_review"
	StatusRemoved     = "removed"
)

type Listing struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessName string    `json:"business_name"`
	Description  string    `json:"description"`
	Reported     bool      `json:"reported" gorm:"index"`
	Moderated    bool      `json:"moderated" gorm:"index"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// Text composes the moderated text for a listing. Business name and
// description are judged together, matching how listings are displayed.
func (l *Listing) Text() string {
	return strings.TrimSpace(l.BusinessName + " " + l.Description)
}
