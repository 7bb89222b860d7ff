package entity

import (
	"time"
)

// Subject представляет предмет, по которому сдаются экзамены
type Subject struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Code        string    `gorm:"size:10;not null;uniqueIndex" json:"code"`
	Description string    `gorm:"type:text;not null;default:''" json:"description,omitempty"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Subject) TableName() string {
	return "subjects"
}
