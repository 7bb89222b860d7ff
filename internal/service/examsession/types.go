package examsession

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// State — состояние сессии экзамена
type State string

// Состояния жизненного цикла сессии.
// loading → in_progress → submitting → терминальные (submitted | abandoned | timed_out)
const (
	StateLoading    State = "loading"
	StateInProgress State = "in_progress"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateAbandoned  State = "abandoned"
	StateTimedOut   State = "timed_out"
)

// IsTerminal проверяет, что состояние терминальное
func (s State) IsTerminal() bool {
	return s == StateSubmitted || s == StateAbandoned || s == StateTimedOut
}

// Ошибки сессии
var (
	// ErrNoQuestions означает, что по выбранным параметрам не нашлось ни одного
	// вопроса. Вызывающая сторона должна вернуть пользователя на экран настройки,
	// а не показывать пустой экзамен.
	ErrNoQuestions = errors.New("no questions available for the selected criteria")

	// ErrIndexOutOfRange означает переход к несуществующему номеру вопроса.
	ErrIndexOutOfRange = errors.New("question index out of range")

	// ErrNotInProgress означает попытку действия над сессией не в состоянии in_progress.
	ErrNotInProgress = errors.New("session is not in progress")

	// ErrAlreadyTerminal означает попытку перевести завершённую сессию в другое состояние.
	ErrAlreadyTerminal = errors.New("session already reached a terminal state")
)

// Params описывает параметры запуска сессии
type Params struct {
	SubjectIDs []uint
	Year       int
	Topic      string
	Mode       string // exam | practice
	Limit      int

	// TotalTimeSec — отведённое время в секундах. По достижении нуля сессия
	// принудительно завершается (timed_out).
	TotalTimeSec int
}

// Summary — сводка для подтверждения перед необратимой отправкой
type Summary struct {
	Answered   int `json:"answered"`
	Unanswered int `json:"unanswered"`
	Flagged    int `json:"flagged"`
}

// Clock абстрагирует источник времени для подсчёта времени на вопрос.
// В тестах подменяется фейковыми часами.
type Clock interface {
	Now() time.Time
}

// realClock — часы по умолчанию
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// QuestionLoader загружает набор вопросов для сессии
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, params Params) ([]entity.Question, error)
}

// SubmitAnswer — один вопрос в отправке. Пустой SelectedAnswer означает
// «без ответа»: такие вопросы тоже отправляются, чтобы сервер считал
// знаменатель по предъявленным вопросам.
type SubmitAnswer struct {
	QuestionID     uint   `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	TimeSpentSec   int    `json:"time_spent_sec"`
}

// SubmitRequest — тело запроса на отправку экзамена
type SubmitRequest struct {
	SubmissionID string         `json:"submission_id"`
	SubjectID    uint           `json:"subject_id"`
	ExamType     string         `json:"exam_type"`
	Year         int            `json:"year"`
	Answers      []SubmitAnswer `json:"answers"`
	TimeUsedSec  int            `json:"time_used_sec"`
}

// SubmitResult — краткий результат, который сервер возвращает на отправку
type SubmitResult struct {
	ID             uint `json:"id"`
	Score          int  `json:"score"`
	CorrectAnswers int  `json:"correct_answers"`
	TotalQuestions int  `json:"total_questions"`
	TimeUsedSec    int  `json:"time_used_sec"`
}

// Gateway отправляет готовую отправку на сервер подсчёта.
// Реализация НЕ должна повторять запрос самостоятельно: при ошибке решение
// о повторе принимает человек, иначе устаревший клиент мог бы создать
// второй результат для уже завершённой сессии.
type Gateway interface {
	SubmitExam(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
}
