package domain

import "time"

// Message is a direct message between two users, optionally about a job.
type Message struct {
	ID            string    `json:"id,omitempty"`
	SenderID      string    `json:"sender_id"`
	RecipientID   string    `json:"recipient_id"`
	JobID         *string   `json:"job_id,omitempty"`
	Content       string    `json:"content"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
}
