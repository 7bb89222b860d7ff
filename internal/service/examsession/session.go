package examsession

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// Session — одна попытка прохождения тренировки или экзамена.
// Сессия живёт только на стороне клиента и никогда не сохраняется
// в незавершённом виде: перезагрузка страницы теряет прогресс.
//
// Все переходы происходят через явные методы сессии; внутреннее состояние
// защищено мьютексом, потому что Tick вызывается из горутины таймера
// (см. Timer), а остальные методы — из цикла владельца.
type Session struct {
	mu    sync.Mutex
	clock Clock

	submissionID string
	params       Params
	questions    []entity.Question

	state     State
	current   int
	answers   map[int]entity.AnswerLabel
	flags     map[int]bool
	timeSpent []int // секунды на каждый вопрос, по индексу

	remaining int
	arrivedAt time.Time

	timer     *Timer
	onTimeout func()
}

// Start загружает вопросы и открывает сессию.
// Ошибка загрузки блокирует вход в in_progress: молча показать пустой
// экзамен нельзя. Пустая выборка — ErrNoQuestions, владелец должен
// вернуть пользователя на экран настройки.
func Start(ctx context.Context, loader QuestionLoader, params Params) (*Session, error) {
	return StartWithClock(ctx, loader, params, realClock{})
}

// StartWithClock — то же, что Start, но с внешними часами (для тестов)
func StartWithClock(ctx context.Context, loader QuestionLoader, params Params, clock Clock) (*Session, error) {
	questions, err := loader.LoadQuestions(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	return NewSession(questions, params, clock)
}

// NewSession создает сессию поверх уже загруженного набора вопросов
func NewSession(questions []entity.Question, params Params, clock Clock) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if clock == nil {
		clock = realClock{}
	}

	s := &Session{
		clock:        clock,
		submissionID: uuid.NewString(),
		params:       params,
		questions:    questions,
		state:        StateInProgress,
		current:      0,
		answers:      make(map[int]entity.AnswerLabel, len(questions)),
		flags:        make(map[int]bool),
		timeSpent:    make([]int, len(questions)),
		remaining:    params.TotalTimeSec,
		arrivedAt:    clock.Now(),
	}
	return s, nil
}

// State возвращает текущее состояние сессии
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SubmissionID возвращает идентификатор отправки этой сессии.
// Генерируется один раз при старте: повторная отправка той же сессии
// идемпотентна на сервере.
func (s *Session) SubmissionID() string {
	return s.submissionID
}

// CurrentIndex возвращает номер текущего вопроса (0-based).
// Текущий вопрос ровно один в любой момент.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// QuestionCount возвращает количество вопросов в сессии
func (s *Session) QuestionCount() int {
	return len(s.questions)
}

// Question возвращает вопрос по индексу
func (s *Session) Question(index int) (*entity.Question, error) {
	if index < 0 || index >= len(s.questions) {
		return nil, ErrIndexOutOfRange
	}
	return &s.questions[index], nil
}

// RemainingSec возвращает оставшееся время в секундах
func (s *Session) RemainingSec() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// SelectAnswer записывает (или перезаписывает) ответ на вопрос.
// Ответ сохраняется при навигации, пока его не перезапишут.
// Невалидная метка нестрого приводится к «без ответа».
func (s *Session) SelectAnswer(index int, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	if index < 0 || index >= len(s.questions) {
		return ErrIndexOutOfRange
	}

	label := entity.NormalizeAnswer(raw)
	if label == entity.AnswerNone {
		delete(s.answers, index)
		return nil
	}
	s.answers[index] = label
	return nil
}

// Answer возвращает записанный ответ на вопрос (AnswerNone — без ответа)
func (s *Session) Answer(index int) entity.AnswerLabel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers[index]
}

// Navigate переходит к вопросу с указанным номером.
// Перед переходом фиксируется время, проведённое на покидаемом вопросе,
// поэтому при повторных заходах время накапливается, а не теряется
// и не задваивается.
func (s *Session) Navigate(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	if index < 0 || index >= len(s.questions) {
		return ErrIndexOutOfRange
	}

	s.flushTimeLocked()
	s.current = index
	return nil
}

// ToggleFlag переключает пометку вопроса и возвращает новое значение
func (s *Session) ToggleFlag(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return false, ErrNotInProgress
	}
	if index < 0 || index >= len(s.questions) {
		return false, ErrIndexOutOfRange
	}

	if s.flags[index] {
		delete(s.flags, index)
		return false, nil
	}
	s.flags[index] = true
	return true, nil
}

// IsFlagged проверяет, помечен ли вопрос
func (s *Session) IsFlagged(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[index]
}

// SetOnTimeout устанавливает обработчик, который будет вызван ровно один раз,
// когда время сессии истечёт. Обычно обработчик инициирует отправку.
func (s *Session) SetOnTimeout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTimeout = fn
}

// Tick уменьшает оставшееся время на одну секунду.
// Время монотонно не возрастает и никогда не хранится отрицательным.
// Достижение нуля переводит сессию в timed_out ровно один раз:
// повторные нулевые тики уже ничего не делают.
func (s *Session) Tick() bool {
	s.mu.Lock()

	if s.state != StateInProgress {
		s.mu.Unlock()
		return false
	}

	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		s.mu.Unlock()
		return false
	}

	// Время вышло: терминальный переход и остановка таймера
	s.flushTimeLocked()
	s.state = StateTimedOut
	s.stopTimerLocked()
	fn := s.onTimeout
	s.mu.Unlock()

	log.Printf("[Session] Время сессии истекло, принудительная отправка (submission %s)", s.submissionID)
	if fn != nil {
		fn()
	}
	return true
}

// Summary возвращает сводку для окна подтверждения перед отправкой
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	answered := len(s.answers)
	return Summary{
		Answered:   answered,
		Unanswered: len(s.questions) - answered,
		Flagged:    len(s.flags),
	}
}

// Submit отправляет набор ответов на сервер подсчёта.
// Допустим из in_progress (явная отправка) и из timed_out (отправка по
// истечении времени). Отправляются ВСЕ предъявленные вопросы, включая
// оставшиеся без ответа. При ошибке шлюза сессия возвращается в
// in_progress, ничего не повторяется автоматически — решение за человеком.
func (s *Session) Submit(ctx context.Context, gateway Gateway) (*SubmitResult, error) {
	s.mu.Lock()
	switch s.state {
	case StateInProgress:
		s.flushTimeLocked()
		s.state = StateSubmitting
	case StateTimedOut:
		// Время уже зафиксировано в Tick
	default:
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: state is %s", ErrAlreadyTerminal, state)
	}
	req := s.buildRequestLocked()
	s.mu.Unlock()

	result, err := gateway.SubmitExam(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.state == StateSubmitting {
			s.state = StateInProgress
		}
		return nil, err
	}

	s.stopTimerLocked()
	if s.state == StateSubmitting {
		s.state = StateSubmitted
	}
	return result, nil
}

// Abandon завершает сессию без отправки: уход со страницы, отмена.
// Результат не сохраняется; таймер останавливается, чтобы не сработать
// после ухода.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsTerminal() {
		return ErrAlreadyTerminal
	}
	s.stopTimerLocked()
	s.state = StateAbandoned
	return nil
}

// TimeUsedSec возвращает использованное время в секундах
func (s *Session) TimeUsedSec() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeUsedLocked()
}

func (s *Session) timeUsedLocked() int {
	return s.params.TotalTimeSec - s.remaining
}

// flushTimeLocked фиксирует время, проведённое на текущем вопросе,
// и сбрасывает точку отсчёта. Вызывается при каждом уходе с вопроса
// и при завершении сессии.
func (s *Session) flushTimeLocked() {
	now := s.clock.Now()
	delta := int(now.Sub(s.arrivedAt).Seconds())
	if delta > 0 {
		s.timeSpent[s.current] += delta
	}
	s.arrivedAt = now
}

// buildRequestLocked собирает тело отправки по всем предъявленным вопросам
func (s *Session) buildRequestLocked() SubmitRequest {
	answers := make([]SubmitAnswer, len(s.questions))
	for i, q := range s.questions {
		answers[i] = SubmitAnswer{
			QuestionID:     q.ID,
			SelectedAnswer: string(s.answers[i]),
			TimeSpentSec:   s.timeSpent[i],
		}
	}

	subjectID := uint(0)
	if len(s.params.SubjectIDs) > 0 {
		subjectID = s.params.SubjectIDs[0]
	}

	mode := s.params.Mode
	if mode == "" {
		mode = "exam"
	}

	return SubmitRequest{
		SubmissionID: s.submissionID,
		SubjectID:    subjectID,
		ExamType:     mode,
		Year:         s.params.Year,
		Answers:      answers,
		TimeUsedSec:  s.timeUsedLocked(),
	}
}
