package repository

import (
	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// QuestionFilter описывает параметры выборки вопросов для сессии.
// Порядок выборки детерминирован в рамках одного запроса.
type QuestionFilter struct {
	SubjectIDs []uint
	Year       int
	Topic      string // пустая строка — без фильтра по теме
	Limit      int
}

// QuestionRepository определяет методы для работы с банком вопросов
type QuestionRepository interface {
	// GetByIDs возвращает вопросы по набору ID одним запросом.
	// Отсутствующие ID не являются ошибкой на этом уровне — вызывающая
	// сторона сверяет количество.
	GetByIDs(ids []uint) ([]entity.Question, error)

	// Find возвращает активные вопросы по фильтру в стабильном порядке
	Find(filter QuestionFilter) ([]entity.Question, error)

	// Years возвращает различные годы, по которым есть активные вопросы предмета
	Years(subjectID uint) ([]int, error)

	// Topics возвращает различные темы активных вопросов предмета за год
	Topics(subjectID uint, year int) ([]string, error)

	// CreateBatch создает пакет вопросов (используется при наполнении банка)
	CreateBatch(questions []entity.Question) error
}
