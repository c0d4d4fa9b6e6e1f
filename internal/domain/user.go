package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email             string    `gorm:"uniqueIndex;not null"`
	Username          string    `gorm:"uniqueIndex;not null"`
	Password          string    `gorm:"not null"`
	Bio               string    `gorm:"size:200;default:'Aspiring developer learning with CodeNest'"`
	PreferredLanguage Language  `gorm:"size:16;default:'python'"`
	LearningGoal      string    `gorm:"default:'DSA Basics'"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
