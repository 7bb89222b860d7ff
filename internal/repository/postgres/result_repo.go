package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// Код ошибки PostgreSQL для нарушения уникального ограничения
const pgUniqueViolation = "23505"

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return true
	}
	return false
}

// ResultRepo реализует repository.ResultRepository
type ResultRepo struct {
	db *gorm.DB
}

// NewResultRepo создает новый репозиторий результатов
func NewResultRepo(db *gorm.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// Save сохраняет итоговый результат экзамена.
// Запись создаётся ровно один раз: повторная отправка с тем же
// submission_id упирается в уникальный индекс и возвращает ErrConflict,
// так что устаревший клиент не создаст второй результат для той же сессии.
func (r *ResultRepo) Save(result *entity.ExamResult) error {
	err := r.db.Create(result).Error
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return err
	}
	return nil
}

// GetByID возвращает результат по ID
func (r *ResultRepo) GetByID(id uint) (*entity.ExamResult, error) {
	var result entity.ExamResult
	err := r.db.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// GetUserResults возвращает результаты пользователя, новые первыми
func (r *ResultRepo) GetUserResults(userID uint, subjectID uint, limit int) ([]entity.ExamResult, error) {
	query := r.db.Where("user_id = ?", userID)
	if subjectID > 0 {
		query = query.Where("subject_id = ?", subjectID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []entity.ExamResult
	err := query.Order("completed_at DESC").Find(&results).Error
	// Пустой слайс — валидный результат, ErrRecordNotFound здесь не проверяем
	return results, err
}

// CountAll возвращает общее количество сохранённых результатов
func (r *ResultRepo) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&entity.ExamResult{}).Count(&count).Error
	return count, err
}
