package testimonial

import (
	"time"

	"github.com/google/uuid"
)

type Testimonial struct {
	ID             uuid.UUID
	ReviewerName   string
	ReviewerEmail  string
	ReviewTitle    string
	ReviewText     string
	Rating         int
	GenuineOpinion bool
	CreatedAt      time.Time
}
