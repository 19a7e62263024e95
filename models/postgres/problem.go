package postgres

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Attachment describes an uploaded file kept under the upload directory
type Attachment struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

/*
 * 'Problem' is a question posted by a user. SolutionIDs mirrors the
 * Solution rows pointing at it and is maintained with best-effort,
 * non transactional double writes.
 */
type Problem struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Username    string         `gorm:"size:50;index:idx_problems_username" json:"username"`
	SolutionIDs pq.StringArray `gorm:"type:text[]" json:"solutionIds"`
	Attachments datatypes.JSON `json:"attachments"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type Solution struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ProblemID  string    `gorm:"size:36;not null;index:idx_solutions_problem" json:"problemId"`
	Username   string    `gorm:"size:50;index:idx_solutions_username" json:"username"`
	Title      string    `gorm:"size:200" json:"title"`
	Content    string    `gorm:"type:text" json:"content"`
	IsAccepted bool      `gorm:"default:false" json:"isAccepted"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Resource is an entry of the static learning resource catalog
type Resource struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Category    string `gorm:"size:50;index:idx_resources_category" json:"category"`
	Title       string `gorm:"size:200;not null" json:"title"`
	URL         string `gorm:"size:500" json:"url"`
	Description string `gorm:"type:text" json:"description"`
}
