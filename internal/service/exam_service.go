package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// SubmittedAnswer — один ответ из отправки клиента.
// SelectedAnswer уже нормализован на этапе декодирования: невалидная метка
// превращается в AnswerNone, а не отклоняет отправку целиком.
type SubmittedAnswer struct {
	QuestionID     uint
	SelectedAnswer entity.AnswerLabel
	TimeSpentSec   int
}

// SubmitInput — полный набор данных одной отправки экзамена
type SubmitInput struct {
	SubmissionID string
	SubjectID    uint
	ExamType     string
	Year         int
	Answers      []SubmittedAnswer
	TimeUsedSec  int
}

// ExamService подсчитывает результат отправки и сохраняет его.
// Путь отправки — «всё или ничего»: частично подсчитанный результат
// никогда не попадает в базу.
type ExamService struct {
	questionRepo repository.QuestionRepository
	resultRepo   repository.ResultRepository
	subjectRepo  repository.SubjectRepository
}

// NewExamService создает новый сервис экзаменов
func NewExamService(
	questionRepo repository.QuestionRepository,
	resultRepo repository.ResultRepository,
	subjectRepo repository.SubjectRepository,
) *ExamService {
	return &ExamService{
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		subjectRepo:  subjectRepo,
	}
}

// Submit подсчитывает и сохраняет результат одной отправки.
//
// Правильность каждого ответа сверяется с банком вопросов на момент отправки,
// а знаменатель процента — количество РАЗРЕШЁННЫХ вопросов (предъявленных
// студенту), а не количество отвеченных.
func (s *ExamService) Submit(userID uint, input SubmitInput) (*entity.ExamResult, error) {
	// Валидация до любого обращения к банку вопросов
	if err := s.validate(userID, input); err != nil {
		return nil, err
	}

	// Проверяем, что предмет существует
	if _, err := s.subjectRepo.GetByID(input.SubjectID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: subject %d not found", apperrors.ErrValidation, input.SubjectID)
		}
		return nil, err
	}

	// Разрешаем все вопросы одним пакетным запросом
	ids := make([]uint, len(input.Answers))
	for i, a := range input.Answers {
		ids[i] = a.QuestionID
	}

	questions, err := s.questionRepo.GetByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve questions: %w", err)
	}

	byID := make(map[uint]*entity.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	// Отсутствующий вопрос нельзя молча пропустить: это занизило бы
	// total_questions. Отправка отклоняется целиком.
	var missing []uint
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: question ids %v not found", apperrors.ErrQuestionResolution, missing)
	}

	totalQuestions := len(questions)
	if totalQuestions == 0 {
		return nil, apperrors.ErrEmptySubmission
	}

	// Подсчёт: вопрос без ответа всегда неверный, но остаётся в снимке
	snapshot := make(entity.ResultQuestionList, 0, len(input.Answers))
	correctAnswers := 0
	for _, answer := range input.Answers {
		question := byID[answer.QuestionID]
		isCorrect := question.IsCorrect(answer.SelectedAnswer)
		if isCorrect {
			correctAnswers++
		}

		snapshot = append(snapshot, entity.ResultQuestion{
			QuestionID:     question.ID,
			SelectedAnswer: answer.SelectedAnswer,
			CorrectAnswer:  question.CorrectOption,
			IsCorrect:      isCorrect,
			TimeSpentSec:   answer.TimeSpentSec,
		})
	}

	submissionID := input.SubmissionID
	if submissionID == "" {
		submissionID = uuid.NewString()
	}

	result := &entity.ExamResult{
		SubmissionID:   submissionID,
		UserID:         userID,
		SubjectID:      input.SubjectID,
		ExamType:       input.ExamType,
		Year:           input.Year,
		Questions:      snapshot,
		TotalQuestions: totalQuestions,
		CorrectAnswers: correctAnswers,
		Score:          entity.CalculateScore(correctAnswers, totalQuestions),
		TimeUsedSec:    input.TimeUsedSec,
		CompletedAt:    time.Now(),
	}

	// Ровно одна запись на отправку; повтор по submission_id даст ErrConflict
	if err := s.resultRepo.Save(result); err != nil {
		return nil, err
	}

	log.Printf("[ExamService] Результат #%d сохранён: пользователь #%d, предмет #%d, %d/%d (%d%%)",
		result.ID, userID, input.SubjectID, correctAnswers, totalQuestions, result.Score)

	return result, nil
}

// validate проверяет форму отправки до обращения к хранилищам
func (s *ExamService) validate(userID uint, input SubmitInput) error {
	if userID == 0 {
		return fmt.Errorf("%w: user id is required", apperrors.ErrValidation)
	}
	if input.SubjectID == 0 {
		return fmt.Errorf("%w: subject id is required", apperrors.ErrValidation)
	}
	if !entity.IsValidExamType(input.ExamType) {
		return fmt.Errorf("%w: exam type must be 'practice' or 'exam'", apperrors.ErrValidation)
	}
	if input.Year <= 0 {
		return fmt.Errorf("%w: year is required", apperrors.ErrValidation)
	}
	if len(input.Answers) == 0 {
		return apperrors.ErrEmptySubmission
	}
	if input.TimeUsedSec < 0 {
		return fmt.Errorf("%w: time_used_sec must be non-negative", apperrors.ErrValidation)
	}

	// Дубликаты question_id отклоняем как некорректный ввод: политика
	// «последний побеждает» сделала бы подсчёт зависимым от порядка.
	seen := make(map[uint]struct{}, len(input.Answers))
	for _, a := range input.Answers {
		if a.QuestionID == 0 {
			return fmt.Errorf("%w: question id is required for every answer", apperrors.ErrValidation)
		}
		if a.TimeSpentSec < 0 {
			return fmt.Errorf("%w: time_spent_sec must be non-negative", apperrors.ErrValidation)
		}
		if _, ok := seen[a.QuestionID]; ok {
			return fmt.Errorf("%w: duplicate question id %d in submission", apperrors.ErrValidation, a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}
	}

	return nil
}

// GetResultByID возвращает результат с полной разбивкой по вопросам.
// Чужой результат неотличим от несуществующего.
func (s *ExamService) GetResultByID(userID uint, resultID uint) (*entity.ExamResult, error) {
	result, err := s.resultRepo.GetByID(resultID)
	if err != nil {
		return nil, err
	}
	if result.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return result, nil
}

// GetUserResults возвращает последние результаты пользователя.
// subjectID == 0 — без фильтра по предмету.
func (s *ExamService) GetUserResults(userID uint, subjectID uint, limit int) ([]entity.ExamResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.resultRepo.GetUserResults(userID, subjectID, limit)
}
