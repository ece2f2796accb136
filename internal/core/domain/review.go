package domain

import "time"

type Review struct {
	ID            string       `json:"id"`
	DocumentID    string       `json:"doc_id"`
	Reviewer      string       `json:"reviewer"`
	ReviewerEmail string       `json:"reviewer_email,omitempty"`
	Status        ReviewStatus `json:"status"`
	Comments      string       `json:"comments,omitempty"`
	ReviewedAt    time.Time    `json:"reviewed_at"`
}

type ReviewInput struct {
	Reviewer      string       `json:"reviewer"`
	ReviewerEmail string       `json:"reviewer_email"`
	Status        ReviewStatus `json:"status"`
	Comments      string       `json:"comments"`
}
