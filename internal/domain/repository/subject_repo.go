package repository

import (
	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// SubjectRepository определяет методы для работы с предметами
type SubjectRepository interface {
	GetByID(id uint) (*entity.Subject, error)
	GetActive() ([]entity.Subject, error)
	Create(subject *entity.Subject) error
}
