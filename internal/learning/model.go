// Package learning tracks which languages a user studies: proficiency,
// which one is primary, and soft-deleted history.
package learning

import (
	"time"

	"github.com/google/uuid"
)

// Proficiency is a self-reported skill level, stored as text.
type Proficiency string

const (
	Beginner     Proficiency = "beginner"
	Elementary   Proficiency = "elementary"
	Intermediate Proficiency = "intermediate"
	Advanced     Proficiency = "advanced"
	Fluent       Proficiency = "fluent"
)

// Valid reports whether p is one of the known levels.
func (p Proficiency) Valid() bool {
	switch p {
	case Beginner, Elementary, Intermediate, Advanced, Fluent:
		return true
	}
	return false
}

// UserLanguage is one language a user studies.
type UserLanguage struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	LanguageCode string      `json:"language_code"`
	Proficiency  Proficiency `json:"proficiency"`
	IsPrimary    bool        `json:"is_primary"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	DeletedAt    *time.Time  `json:"-"`
}
