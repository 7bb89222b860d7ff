package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
	"github.com/yourusername/examprep-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============================================================================
// Моки репозиториев: обработчики работают поверх реального сервиса,
// мокаются только хранилища
// ============================================================================

type mockQuestionRepo struct {
	mock.Mock
}

func (m *mockQuestionRepo) GetByIDs(ids []uint) ([]entity.Question, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *mockQuestionRepo) Find(filter repository.QuestionFilter) ([]entity.Question, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *mockQuestionRepo) Years(subjectID uint) ([]int, error) {
	args := m.Called(subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockQuestionRepo) Topics(subjectID uint, year int) ([]string, error) {
	args := m.Called(subjectID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockQuestionRepo) CreateBatch(questions []entity.Question) error {
	args := m.Called(questions)
	return args.Error(0)
}

type mockResultRepo struct {
	mock.Mock
}

func (m *mockResultRepo) Save(result *entity.ExamResult) error {
	args := m.Called(result)
	return args.Error(0)
}

func (m *mockResultRepo) GetByID(id uint) (*entity.ExamResult, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExamResult), args.Error(1)
}

func (m *mockResultRepo) GetUserResults(userID uint, subjectID uint, limit int) ([]entity.ExamResult, error) {
	args := m.Called(userID, subjectID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ExamResult), args.Error(1)
}

func (m *mockResultRepo) CountAll() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

type mockSubjectRepo struct {
	mock.Mock
}

func (m *mockSubjectRepo) GetByID(id uint) (*entity.Subject, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subject), args.Error(1)
}

func (m *mockSubjectRepo) GetActive() ([]entity.Subject, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Subject), args.Error(1)
}

func (m *mockSubjectRepo) Create(subject *entity.Subject) error {
	args := m.Called(subject)
	return args.Error(0)
}

// ============================================================================
// Вспомогательные функции
// ============================================================================

func newExamTestContext(t *testing.T, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err)
		req, _ = http.NewRequest(http.MethodPost, "/api/exams/submit", bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(http.MethodPost, "/api/exams/submit", nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("user_id", uint(42))
	return c, w
}

func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Тело ответа должно быть валидным JSON: %s", w.Body.String())
	return resp
}

func newExamHandlerWithMocks() (*ExamHandler, *mockQuestionRepo, *mockResultRepo, *mockSubjectRepo) {
	questionRepo := new(mockQuestionRepo)
	resultRepo := new(mockResultRepo)
	subjectRepo := new(mockSubjectRepo)
	svc := service.NewExamService(questionRepo, resultRepo, subjectRepo)
	return NewExamHandler(svc), questionRepo, resultRepo, subjectRepo
}

func submitBody(answers []map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"submission_id": "a4f2c9b1-0000-0000-0000-000000000001",
		"subject_id":    1,
		"exam_type":     "exam",
		"year":          2023,
		"answers":       answers,
		"time_used_sec": 300,
	}
}

// ============================================================================
// SubmitExam
// ============================================================================

func TestExamHandler_SubmitExam_Success(t *testing.T) {
	// Arrange
	handler, questionRepo, resultRepo, subjectRepo := newExamHandlerWithMocks()

	subjectRepo.On("GetByID", uint(1)).Return(&entity.Subject{ID: 1, Name: "Математика"}, nil)
	questionRepo.On("GetByIDs", []uint{10, 11}).Return([]entity.Question{
		{ID: 10, CorrectOption: entity.AnswerA},
		{ID: 11, CorrectOption: entity.AnswerB},
	}, nil)
	resultRepo.On("Save", mock.AnythingOfType("*entity.ExamResult")).Return(nil)

	c, w := newExamTestContext(t, submitBody([]map[string]interface{}{
		{"question_id": 10, "selected_answer": "A", "time_spent_sec": 30},
		{"question_id": 11, "selected_answer": "C", "time_spent_sec": 20},
	}))

	// Act
	handler.SubmitExam(c)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "Exam submitted successfully", resp["message"])

	result := resp["result"].(map[string]interface{})
	assert.Equal(t, float64(2), result["total_questions"])
	assert.Equal(t, float64(1), result["correct_answers"])
	assert.Equal(t, float64(50), result["score"])
}

func TestExamHandler_SubmitExam_LenientDecodeOfInvalidLabel(t *testing.T) {
	// Невалидная метка в ответе не отклоняет отправку:
	// она декодируется как "без ответа" и считается неверной
	handler, questionRepo, resultRepo, subjectRepo := newExamHandlerWithMocks()

	subjectRepo.On("GetByID", uint(1)).Return(&entity.Subject{ID: 1}, nil)
	questionRepo.On("GetByIDs", []uint{10}).Return([]entity.Question{
		{ID: 10, CorrectOption: entity.AnswerA},
	}, nil)

	var saved *entity.ExamResult
	resultRepo.On("Save", mock.AnythingOfType("*entity.ExamResult")).Run(func(args mock.Arguments) {
		saved = args.Get(0).(*entity.ExamResult)
	}).Return(nil)

	c, w := newExamTestContext(t, submitBody([]map[string]interface{}{
		{"question_id": 10, "selected_answer": "X"},
	}))

	// Act
	handler.SubmitExam(c)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, saved)
	require.Len(t, saved.Questions, 1)
	assert.Equal(t, entity.AnswerNone, saved.Questions[0].SelectedAnswer, "Мусорная метка должна стать 'без ответа'")
	assert.False(t, saved.Questions[0].IsCorrect)
}

func TestExamHandler_SubmitExam_BindingErrors(t *testing.T) {
	// Arrange: ошибки формы отбиваются до обращения к сервису
	testCases := []struct {
		name string
		body interface{}
	}{
		{"пустое тело", nil},
		{"без subject_id", map[string]interface{}{
			"exam_type": "exam", "year": 2023,
			"answers": []map[string]interface{}{{"question_id": 1}},
		}},
		{"пустой список ответов", map[string]interface{}{
			"subject_id": 1, "exam_type": "exam", "year": 2023,
			"answers": []map[string]interface{}{},
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler, _, resultRepo, _ := newExamHandlerWithMocks()
			c, w := newExamTestContext(t, tc.body)

			handler.SubmitExam(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resultRepo.AssertNotCalled(t, "Save", mock.Anything)
		})
	}
}

func TestExamHandler_SubmitExam_ErrorMapping(t *testing.T) {
	// Arrange: вопрос не из банка -> 422
	handler, questionRepo, _, subjectRepo := newExamHandlerWithMocks()

	subjectRepo.On("GetByID", uint(1)).Return(&entity.Subject{ID: 1}, nil)
	questionRepo.On("GetByIDs", []uint{999}).Return([]entity.Question{}, nil)

	c, w := newExamTestContext(t, submitBody([]map[string]interface{}{
		{"question_id": 999, "selected_answer": "A"},
	}))

	// Act
	handler.SubmitExam(c)

	// Assert
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Contains(t, resp["message"], "999")
}

func TestExamHandler_SubmitExam_ConflictOnDuplicateSubmission(t *testing.T) {
	// Повторная отправка того же submission_id -> 409
	handler, questionRepo, resultRepo, subjectRepo := newExamHandlerWithMocks()

	subjectRepo.On("GetByID", uint(1)).Return(&entity.Subject{ID: 1}, nil)
	questionRepo.On("GetByIDs", []uint{10}).Return([]entity.Question{
		{ID: 10, CorrectOption: entity.AnswerA},
	}, nil)
	resultRepo.On("Save", mock.Anything).Return(apperrors.ErrConflict)

	c, w := newExamTestContext(t, submitBody([]map[string]interface{}{
		{"question_id": 10, "selected_answer": "A"},
	}))

	// Act
	handler.SubmitExam(c)

	// Assert
	assert.Equal(t, http.StatusConflict, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "Submission already processed", resp["message"])
}

// ============================================================================
// GetResult
// ============================================================================

func TestExamHandler_GetResult_ForeignResultIs404(t *testing.T) {
	// Чужой результат неотличим от несуществующего
	handler, _, resultRepo, _ := newExamHandlerWithMocks()
	resultRepo.On("GetByID", uint(5)).Return(&entity.ExamResult{ID: 5, UserID: 99}, nil)

	c, w := newExamTestContext(t, nil)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/exams/results/5", nil)
	c.Set("resultID", uint(5))

	// Act
	handler.GetResult(c)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "Result not found", resp["message"])
}

func TestExamHandler_GetResult_OwnResult(t *testing.T) {
	// Arrange
	handler, _, resultRepo, _ := newExamHandlerWithMocks()
	resultRepo.On("GetByID", uint(5)).Return(&entity.ExamResult{
		ID:             5,
		UserID:         42,
		Score:          80,
		TotalQuestions: 5,
		CorrectAnswers: 4,
		Questions: entity.ResultQuestionList{
			{QuestionID: 10, SelectedAnswer: entity.AnswerA, CorrectAnswer: entity.AnswerA, IsCorrect: true},
		},
	}, nil)

	c, w := newExamTestContext(t, nil)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/exams/results/5", nil)
	c.Set("resultID", uint(5))

	// Act
	handler.GetResult(c)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	result := resp["result"].(map[string]interface{})
	assert.Equal(t, float64(80), result["score"])
	questions := result["questions"].([]interface{})
	require.Len(t, questions, 1, "Полная разбивка по вопросам должна присутствовать")
}
