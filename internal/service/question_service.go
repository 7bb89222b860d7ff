package service

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// Режимы выдачи вопросов
const (
	ModeExam     = "exam"
	ModePractice = "practice"
)

// SelectParams описывает запрос на выборку вопросов для сессии
type SelectParams struct {
	SubjectIDs []uint
	Year       int
	Topic      string
	Mode       string
	Limit      int
}

// QuestionServiceConfig содержит настройки выдачи вопросов
type QuestionServiceConfig struct {
	DefaultExamLimit     int
	DefaultPracticeLimit int
	CacheTTL             time.Duration
}

// DefaultQuestionServiceConfig возвращает настройки по умолчанию
func DefaultQuestionServiceConfig() *QuestionServiceConfig {
	return &QuestionServiceConfig{
		DefaultExamLimit:     40,
		DefaultPracticeLimit: 20,
		CacheTTL:             5 * time.Minute,
	}
}

// QuestionService выдаёт вопросы для сессий и данные для экрана настройки
// (годы, темы, предметы). В экзаменационном режиме правильные ответы и
// пояснения вырезаются из выдачи — они не должны попасть к клиенту до отправки.
type QuestionService struct {
	questionRepo repository.QuestionRepository
	subjectRepo  repository.SubjectRepository
	cacheRepo    repository.CacheRepository
	config       *QuestionServiceConfig
}

// NewQuestionService создает новый сервис вопросов
func NewQuestionService(
	questionRepo repository.QuestionRepository,
	subjectRepo repository.SubjectRepository,
	cacheRepo repository.CacheRepository,
	config *QuestionServiceConfig,
) *QuestionService {
	if config == nil {
		config = DefaultQuestionServiceConfig()
	}
	return &QuestionService{
		questionRepo: questionRepo,
		subjectRepo:  subjectRepo,
		cacheRepo:    cacheRepo,
		config:       config,
	}
}

// SelectQuestions возвращает вопросы по фильтру.
// Выбираются только активные вопросы; порядок стабилен в рамках запроса.
// Пустой результат — не ошибка на этом уровне: решение, что делать с пустым
// экзаменом, принимает сессия.
func (s *QuestionService) SelectQuestions(params SelectParams) ([]entity.Question, error) {
	if len(params.SubjectIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one subject id is required", apperrors.ErrValidation)
	}
	if params.Year <= 0 {
		return nil, fmt.Errorf("%w: year is required", apperrors.ErrValidation)
	}

	mode := params.Mode
	if mode == "" {
		mode = ModeExam
	}
	if mode != ModeExam && mode != ModePractice {
		return nil, fmt.Errorf("%w: unknown mode %q", apperrors.ErrValidation, params.Mode)
	}

	limit := params.Limit
	if limit <= 0 {
		if mode == ModePractice {
			limit = s.config.DefaultPracticeLimit
		} else {
			limit = s.config.DefaultExamLimit
		}
	}

	// Кеш по полному набору параметров: повторный запрос той же выборки
	// (например, при догрузке страницы) получает тот же набор и порядок.
	cacheKey := s.selectCacheKey(params.SubjectIDs, params.Year, params.Topic, mode, limit)
	var cached []entity.Question
	if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		// Проблемы кеша не должны ломать выдачу, просто идём в БД
		log.Printf("[QuestionService] Ошибка чтения кеша %s: %v", cacheKey, err)
	}

	questions, err := s.questionRepo.Find(repository.QuestionFilter{
		SubjectIDs: params.SubjectIDs,
		Year:       params.Year,
		Topic:      params.Topic,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select questions: %w", err)
	}

	// В экзаменационном режиме вырезаем ответы ДО кеширования,
	// чтобы в кеше не лежали полные вопросы под экзаменационным ключом
	if mode == ModeExam {
		for i := range questions {
			questions[i] = questions[i].Sanitized()
		}
	}

	if err := s.cacheRepo.SetJSON(cacheKey, questions, s.config.CacheTTL); err != nil {
		log.Printf("[QuestionService] Ошибка записи кеша %s: %v", cacheKey, err)
	}

	return questions, nil
}

// Years возвращает годы, за которые есть активные вопросы предмета, новые первыми
func (s *QuestionService) Years(subjectID uint) ([]int, error) {
	cacheKey := fmt.Sprintf("questions:years:%d", subjectID)
	var cached []int
	if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil {
		return cached, nil
	}

	years, err := s.questionRepo.Years(subjectID)
	if err != nil {
		return nil, err
	}

	// Репозиторий уже сортирует, но защищаемся от другой реализации
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	if err := s.cacheRepo.SetJSON(cacheKey, years, s.config.CacheTTL); err != nil {
		log.Printf("[QuestionService] Ошибка записи кеша %s: %v", cacheKey, err)
	}
	return years, nil
}

// Topics возвращает темы активных вопросов предмета за год
func (s *QuestionService) Topics(subjectID uint, year int) ([]string, error) {
	cacheKey := fmt.Sprintf("questions:topics:%d:%d", subjectID, year)
	var cached []string
	if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil {
		return cached, nil
	}

	topics, err := s.questionRepo.Topics(subjectID, year)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.SetJSON(cacheKey, topics, s.config.CacheTTL); err != nil {
		log.Printf("[QuestionService] Ошибка записи кеша %s: %v", cacheKey, err)
	}
	return topics, nil
}

// Subjects возвращает активные предметы для экрана настройки сессии
func (s *QuestionService) Subjects() ([]entity.Subject, error) {
	return s.subjectRepo.GetActive()
}

// selectCacheKey строит ключ кеша по полному набору параметров выборки
func (s *QuestionService) selectCacheKey(subjectIDs []uint, year int, topic, mode string, limit int) string {
	parts := make([]string, len(subjectIDs))
	for i, id := range subjectIDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("questions:select:%s:%d:%s:%s:%d",
		strings.Join(parts, ","), year, topic, mode, limit)
}
