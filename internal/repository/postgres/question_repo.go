package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// GetByIDs возвращает вопросы по набору ID одним запросом
func (r *QuestionRepo) GetByIDs(ids []uint) ([]entity.Question, error) {
	if len(ids) == 0 {
		return []entity.Question{}, nil
	}

	var questions []entity.Question
	err := r.db.Where("id IN ?", ids).Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// Find возвращает активные вопросы по фильтру.
// Сортировка по id даёт стабильный порядок внутри одного запроса:
// повторная выборка с теми же параметрами не перетасовывает вопросы.
func (r *QuestionRepo) Find(filter repository.QuestionFilter) ([]entity.Question, error) {
	query := r.db.Where("is_active = ?", true)

	if len(filter.SubjectIDs) > 0 {
		query = query.Where("subject_id IN ?", filter.SubjectIDs)
	}
	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}
	if filter.Topic != "" {
		query = query.Where("topic = ?", filter.Topic)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var questions []entity.Question
	err := query.Order("id").Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// Years возвращает различные годы активных вопросов предмета, новые первыми
func (r *QuestionRepo) Years(subjectID uint) ([]int, error) {
	var years []int
	err := r.db.Model(&entity.Question{}).
		Where("subject_id = ? AND is_active = ?", subjectID, true).
		Distinct().
		Order("year DESC").
		Pluck("year", &years).Error
	if err != nil {
		return nil, err
	}
	return years, nil
}

// Topics возвращает различные темы активных вопросов предмета за год
func (r *QuestionRepo) Topics(subjectID uint, year int) ([]string, error) {
	var topics []string
	err := r.db.Model(&entity.Question{}).
		Where("subject_id = ? AND year = ? AND is_active = ?", subjectID, year, true).
		Distinct().
		Order("topic").
		Pluck("topic", &topics).Error
	if err != nil {
		return nil, err
	}
	return topics, nil
}

// CreateBatch создает пакет вопросов
func (r *QuestionRepo) CreateBatch(questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Устанавливаем кодировку UTF-8 внутри транзакции
		if err := tx.Exec("SET CLIENT_ENCODING TO 'UTF8'").Error; err != nil {
			return err
		}
		return tx.Create(&questions).Error
	})
}
