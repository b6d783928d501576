package models

import "time"

// DenylistEntry is one title excluded from the most-read feed.
// An empty or "*" locale applies to every site.
type DenylistEntry struct {
	Locale    string    `json:"locale" yaml:"locale" db:"locale"`
	Title     string    `json:"title" yaml:"title" db:"title"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty" db:"reason"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"-" db:"created_at"`
}
