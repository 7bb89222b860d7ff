package dto

import (
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// OptionResponse представляет вариант ответа в формате для клиента
type OptionResponse struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// QuestionResponse представляет вопрос в формате для ответа клиенту.
// CorrectOption и Explanation присутствуют только в тренировочном режиме:
// сервис уже вырезал их для экзаменационного.
type QuestionResponse struct {
	ID            uint             `json:"id"`
	SubjectID     uint             `json:"subject_id"`
	Year          int              `json:"year"`
	Topic         string           `json:"topic"`
	Text          string           `json:"text"`
	Options       []OptionResponse `json:"options"`
	CorrectOption string           `json:"correct_option,omitempty"`
	Explanation   string           `json:"explanation,omitempty"`
	Difficulty    string           `json:"difficulty"`
}

// ResultSummaryResponse — краткий результат, возвращаемый на отправку
type ResultSummaryResponse struct {
	ID             uint `json:"id"`
	Score          int  `json:"score"`
	CorrectAnswers int  `json:"correct_answers"`
	TotalQuestions int  `json:"total_questions"`
	TimeUsedSec    int  `json:"time_used_sec"`
}

// ResultQuestionResponse — строка поимённой разбивки результата
type ResultQuestionResponse struct {
	QuestionID     uint   `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
	TimeSpentSec   int    `json:"time_spent_sec"`
}

// ResultResponse представляет полный результат с разбивкой по вопросам
type ResultResponse struct {
	ID             uint                     `json:"id"`
	SubjectID      uint                     `json:"subject_id"`
	ExamType       string                   `json:"exam_type"`
	Year           int                      `json:"year"`
	Questions      []ResultQuestionResponse `json:"questions"`
	TotalQuestions int                      `json:"total_questions"`
	CorrectAnswers int                      `json:"correct_answers"`
	Score          int                      `json:"score"`
	TimeUsedSec    int                      `json:"time_used_sec"`
	CompletedAt    time.Time                `json:"completed_at"`
}

// SubjectResponse представляет предмет для экрана настройки сессии
type SubjectResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// NewQuestionResponse создает DTO для вопроса
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	options := make([]OptionResponse, len(q.Options))
	for i, opt := range q.Options {
		options[i] = OptionResponse{Label: string(opt.Label), Text: opt.Text}
	}

	return QuestionResponse{
		ID:            q.ID,
		SubjectID:     q.SubjectID,
		Year:          q.Year,
		Topic:         q.Topic,
		Text:          q.Text,
		Options:       options,
		CorrectOption: string(q.CorrectOption),
		Explanation:   q.Explanation,
		Difficulty:    q.Difficulty,
	}
}

// NewListQuestionResponse создает слайс DTO для списка вопросов
func NewListQuestionResponse(questions []entity.Question) []QuestionResponse {
	list := make([]QuestionResponse, len(questions))
	for i := range questions {
		list[i] = NewQuestionResponse(&questions[i])
	}
	return list
}

// NewResultSummaryResponse создает краткое DTO результата
func NewResultSummaryResponse(result *entity.ExamResult) *ResultSummaryResponse {
	if result == nil {
		return nil
	}
	return &ResultSummaryResponse{
		ID:             result.ID,
		Score:          result.Score,
		CorrectAnswers: result.CorrectAnswers,
		TotalQuestions: result.TotalQuestions,
		TimeUsedSec:    result.TimeUsedSec,
	}
}

// NewResultResponse создает DTO полного результата
func NewResultResponse(result *entity.ExamResult) *ResultResponse {
	if result == nil {
		return nil
	}

	questions := make([]ResultQuestionResponse, len(result.Questions))
	for i, q := range result.Questions {
		questions[i] = ResultQuestionResponse{
			QuestionID:     q.QuestionID,
			SelectedAnswer: string(q.SelectedAnswer),
			CorrectAnswer:  string(q.CorrectAnswer),
			IsCorrect:      q.IsCorrect,
			TimeSpentSec:   q.TimeSpentSec,
		}
	}

	return &ResultResponse{
		ID:             result.ID,
		SubjectID:      result.SubjectID,
		ExamType:       result.ExamType,
		Year:           result.Year,
		Questions:      questions,
		TotalQuestions: result.TotalQuestions,
		CorrectAnswers: result.CorrectAnswers,
		Score:          result.Score,
		TimeUsedSec:    result.TimeUsedSec,
		CompletedAt:    result.CompletedAt,
	}
}

// NewListResultResponse создает слайс кратких DTO для списка результатов
func NewListResultResponse(results []entity.ExamResult) []*ResultSummaryResponse {
	list := make([]*ResultSummaryResponse, len(results))
	for i := range results {
		list[i] = NewResultSummaryResponse(&results[i])
	}
	return list
}

// NewSubjectResponse создает DTO предмета
func NewSubjectResponse(s *entity.Subject) SubjectResponse {
	return SubjectResponse{
		ID:          s.ID,
		Name:        s.Name,
		Code:        s.Code,
		Description: s.Description,
	}
}

// NewListSubjectResponse создает слайс DTO предметов
func NewListSubjectResponse(subjects []entity.Subject) []SubjectResponse {
	list := make([]SubjectResponse, len(subjects))
	for i := range subjects {
		list[i] = NewSubjectResponse(&subjects[i])
	}
	return list
}
