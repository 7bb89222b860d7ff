package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/examprep-api/internal/handler/dto"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
	"github.com/yourusername/examprep-api/internal/service"
)

// QuestionHandler обрабатывает выдачу вопросов и данных экрана настройки
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler создает новый обработчик вопросов
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// GetQuestions обрабатывает GET /api/questions.
// В экзаменационном режиме правильные ответы и пояснения в выдаче отсутствуют.
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	subjectIDs, err := parseSubjectIDs(c.Query("subject_ids"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid subject_ids parameter"})
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid year parameter"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	questions, err := h.questionService.SelectQuestions(service.SelectParams{
		SubjectIDs: subjectIDs,
		Year:       year,
		Topic:      c.Query("topic"),
		Mode:       c.DefaultQuery("mode", service.ModeExam),
		Limit:      limit,
	})
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": dto.NewListQuestionResponse(questions)})
}

// GetYears обрабатывает GET /api/questions/:subjectId/years
func (h *QuestionHandler) GetYears(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(uint)

	years, err := h.questionService.Years(subjectID)
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"years": years})
}

// GetTopics обрабатывает GET /api/questions/:subjectId/years/:year/topics
func (h *QuestionHandler) GetTopics(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(uint)

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid year"})
		return
	}

	topics, err := h.questionService.Topics(subjectID, year)
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

// GetSubjects обрабатывает GET /api/subjects
func (h *QuestionHandler) GetSubjects(c *gin.Context) {
	subjects, err := h.questionService.Subjects()
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subjects": dto.NewListSubjectResponse(subjects)})
}

// parseSubjectIDs разбирает список "1,2,3" из query-параметра
func parseSubjectIDs(raw string) ([]uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("subject_ids is required")
	}

	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil || id == 0 {
			return nil, errors.New("invalid subject id")
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// handleQuestionError переводит ошибки сервисного слоя в HTTP статусы
func (h *QuestionHandler) handleQuestionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	default:
		log.Printf("[QuestionHandler] Внутренняя ошибка: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}
