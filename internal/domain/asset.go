package domain

import "time"

// Asset is an inventory item a ticket may reference.
type Asset struct {
	ID        int64
	Name      string
	Type      string
	Serial    string
	CreatedAt time.Time
}
