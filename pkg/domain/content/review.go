package content

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ListingID uuid.UUID `json:"listing_id" gorm:"type:uuid;index"`
	Content   string    `json:"content"`
	Moderated bool      `json:"moderated" gorm:"index"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}
