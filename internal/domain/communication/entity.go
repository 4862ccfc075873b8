// internal/domain/communication/entity.go
package communication

import (
	"database/sql"
	"time"
)

// Communication is a manually or automatically sent message, distinct from
// system notifications. It carries its own read receipt.
type Communication struct {
	ID         string       `json:"id" db:"id"`
	SenderID   int64        `json:"sender_id" db:"sender_id"`
	UserID     int64        `json:"user_id" db:"user_id"`
	Subject    string       `json:"subject" db:"subject"`
	Body       string       `json:"body" db:"body"`
	HospitalID *int64       `json:"hospital_id,omitempty" db:"hospital_id"`
	ProjectID  *int64       `json:"project_id,omitempty" db:"project_id"`
	ReadAt     sql.NullTime `json:"read_at,omitempty" db:"read_at"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

// Template is a reusable message template with {{variable}} placeholders.
// Names are unique; the declared variable set is advisory only.
type Template struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Subject    string    `json:"subject" db:"subject"`
	Body       string    `json:"body" db:"body"`
	Variables  []string  `json:"variables" db:"variables"`
	Category   string    `json:"category" db:"category"`
	UsageCount int64     `json:"usage_count" db:"usage_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// DTOs

type SendRequest struct {
	RecipientIDs []int64  `json:"recipient_ids" binding:"required,min=1"`
	Subject      string   `json:"subject" binding:"required,max=255"`
	Body         string   `json:"body" binding:"required"`
	Channels     []string `json:"channels" binding:"required,min=1"`
	HospitalID   *int64   `json:"hospital_id,omitempty"`
	ProjectID    *int64   `json:"project_id,omitempty"`
}

type CreateTemplateRequest struct {
	Name      string   `json:"name" binding:"required,max=120"`
	Subject   string   `json:"subject" binding:"required,max=255"`
	Body      string   `json:"body" binding:"required"`
	Variables []string `json:"variables"`
	Category  string   `json:"category"`
}

type UpdateTemplateRequest struct {
	Subject   *string  `json:"subject"`
	Body      *string  `json:"body"`
	Variables []string `json:"variables"`
	Category  *string  `json:"category"`
}
