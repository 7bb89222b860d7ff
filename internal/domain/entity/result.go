package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
	"time"
)

// Типы экзамена
const (
	ExamTypePractice = "practice"
	ExamTypeExam     = "exam"
)

// IsValidExamType проверяет, что тип экзамена входит в допустимый набор
func IsValidExamType(examType string) bool {
	return examType == ExamTypePractice || examType == ExamTypeExam
}

// ResultQuestion — снимок одного вопроса на момент отправки.
// Хранит и выбранный, и правильный ответ, поэтому последующая правка
// вопроса в банке не меняет сохранённый результат.
type ResultQuestion struct {
	QuestionID     uint        `json:"question_id"`
	SelectedAnswer AnswerLabel `json:"selected_answer"`
	CorrectAnswer  AnswerLabel `json:"correct_answer"`
	IsCorrect      bool        `json:"is_correct"`
	TimeSpentSec   int         `json:"time_spent_sec"`
}

// ResultQuestionList — пользовательский тип для работы с JSONB
type ResultQuestionList []ResultQuestion

// Scan реализует интерфейс sql.Scanner для ResultQuestionList
func (r *ResultQuestionList) Scan(value interface{}) error {
	if value == nil {
		*r = ResultQuestionList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*r = ResultQuestionList{}
		return nil
	}

	return json.Unmarshal(bytes, r)
}

// Value реализует интерфейс driver.Valuer для ResultQuestionList
func (r ResultQuestionList) Value() (driver.Value, error) {
	if len(r) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

// ExamResult представляет неизменяемый итоговый результат одной отправки.
// Создаётся ровно один раз и никогда не обновляется (append-only журнал попыток).
type ExamResult struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	SubmissionID   string             `gorm:"size:36;not null;uniqueIndex" json:"submission_id"`
	UserID         uint               `gorm:"not null;index:idx_user_subject_completed" json:"user_id"`
	SubjectID      uint               `gorm:"not null;index:idx_user_subject_completed" json:"subject_id"`
	ExamType       string             `gorm:"size:10;not null" json:"exam_type"`
	Year           int                `gorm:"not null" json:"year"`
	Questions      ResultQuestionList `gorm:"type:jsonb;not null" json:"questions"`
	TotalQuestions int                `gorm:"not null" json:"total_questions"`
	CorrectAnswers int                `gorm:"not null" json:"correct_answers"`
	Score          int                `gorm:"not null" json:"score"`
	TimeUsedSec    int                `gorm:"not null" json:"time_used_sec"`
	CompletedAt    time.Time          `gorm:"not null;index:idx_user_subject_completed,sort:desc" json:"completed_at"`
	CreatedAt      time.Time          `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (ExamResult) TableName() string {
	return "exam_results"
}

// CalculateScore считает процент правильных ответов с обычным
// округлением (половина — вверх). Знаменатель — количество вопросов,
// предъявленных студенту, а не количество отвеченных.
func CalculateScore(correctAnswers, totalQuestions int) int {
	if totalQuestions <= 0 {
		return 0
	}
	return int(math.Round(float64(correctAnswers) / float64(totalQuestions) * 100))
}
