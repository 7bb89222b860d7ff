package repository

import (
	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// ResultRepository определяет методы для работы с результатами экзаменов.
// Результаты неизменяемы: интерфейс сознательно не содержит Update/Delete.
type ResultRepository interface {
	// Save сохраняет новый результат. Повторное сохранение с тем же
	// submission_id возвращает apperrors.ErrConflict.
	Save(result *entity.ExamResult) error

	// GetByID возвращает результат по ID
	GetByID(id uint) (*entity.ExamResult, error)

	// GetUserResults возвращает результаты пользователя, новые первыми.
	// subjectID == 0 — без фильтра по предмету.
	GetUserResults(userID uint, subjectID uint, limit int) ([]entity.ExamResult, error)

	// CountAll возвращает общее количество сохранённых результатов
	CountAll() (int64, error)
}
