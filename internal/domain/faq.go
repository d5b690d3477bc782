package domain

import "time"

// FAQ is a knowledge-base entry. Content is markdown.
type FAQ struct {
	ID         int64
	Title      string
	Content    string
	Category   string
	AuthorID   int64
	AuthorName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
