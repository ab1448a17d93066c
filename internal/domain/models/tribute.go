package models

import (
	"time"

	"github.com/google/uuid"
)

// Tribute - запись гостевой книги
type Tribute struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Relationship string    `json:"relationship,omitempty" db:"relationship"`
	Memory       string    `json:"memory" db:"memory"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// NewTribute создает новый экземпляр Tribute с заполненными обязательными полями
func NewTribute(name, relationship, memory string) *Tribute {
	return &Tribute{
		ID:           uuid.New(),
		Name:         name,
		Relationship: relationship,
		Memory:       memory,
		CreatedAt:    time.Now().UTC(),
	}
}

type TimelineEvent struct {
	Year        string `json:"year"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}
