package content

import (
	"time"

	"github.com/google/uuid"
)

// ScamReport is a user-submitted report of fraudulent content. Only
// reports confirmed by a human reviewer are used as positive training
// examples.
type ScamReport struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Text      string    `json:"text"`
	Confirmed bool      `json:"confirmed" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

func (ScamReport) TableName() string {
	return "scam_reports"
}
