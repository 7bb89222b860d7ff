package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/handler/dto"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
	"github.com/yourusername/examprep-api/internal/service"
)

// ExamHandler обрабатывает отправку экзаменов и выдачу результатов
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler создает новый обработчик экзаменов
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// SubmitAnswerRequest — один ответ в теле отправки.
// selected_answer сознательно без binding-ограничений: невалидная метка
// нестрого приводится к «без ответа», а не отклоняет отправку.
type SubmitAnswerRequest struct {
	QuestionID     uint   `json:"question_id" binding:"required"`
	SelectedAnswer string `json:"selected_answer"`
	TimeSpentSec   int    `json:"time_spent_sec"`
}

// SubmitExamRequest представляет запрос на отправку экзамена
type SubmitExamRequest struct {
	SubmissionID string                `json:"submission_id" binding:"omitempty,max=36"`
	SubjectID    uint                  `json:"subject_id" binding:"required"`
	ExamType     string                `json:"exam_type" binding:"required"`
	Year         int                   `json:"year" binding:"required"`
	Answers      []SubmitAnswerRequest `json:"answers" binding:"required,min=1"`
	TimeUsedSec  int                   `json:"time_used_sec"`
}

// SubmitExam обрабатывает POST /api/exams/submit
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req SubmitExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	answers := make([]service.SubmittedAnswer, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = service.SubmittedAnswer{
			QuestionID:     a.QuestionID,
			SelectedAnswer: entity.NormalizeAnswer(a.SelectedAnswer),
			TimeSpentSec:   a.TimeSpentSec,
		}
	}

	result, err := h.examService.Submit(userID, service.SubmitInput{
		SubmissionID: req.SubmissionID,
		SubjectID:    req.SubjectID,
		ExamType:     req.ExamType,
		Year:         req.Year,
		Answers:      answers,
		TimeUsedSec:  req.TimeUsedSec,
	})
	if err != nil {
		h.handleExamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Exam submitted successfully",
		"result":  dto.NewResultSummaryResponse(result),
	})
}

// GetResult обрабатывает GET /api/exams/results/:id
func (h *ExamHandler) GetResult(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	resultID := c.MustGet("resultID").(uint)

	result, err := h.examService.GetResultByID(userID, resultID)
	if err != nil {
		h.handleExamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": dto.NewResultResponse(result)})
}

// GetUserResults обрабатывает GET /api/exams/results
func (h *ExamHandler) GetUserResults(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var subjectID uint
	if raw := c.Query("subject_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid subject_id"})
			return
		}
		subjectID = uint(parsed)
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	results, err := h.examService.GetUserResults(userID, subjectID, limit)
	if err != nil {
		h.handleExamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": dto.NewListResultResponse(results)})
}

// ExportResult обрабатывает GET /api/exams/results/:id/export:
// выгружает разбивку результата в файл xlsx
func (h *ExamHandler) ExportResult(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	resultID := c.MustGet("resultID").(uint)

	result, err := h.examService.GetResultByID(userID, resultID)
	if err != nil {
		h.handleExamError(c, err)
		return
	}

	file := excelize.NewFile()
	sheet := "Result"
	file.SetSheetName("Sheet1", sheet)

	headers := []string{"#", "Question ID", "Selected", "Correct", "Is Correct", "Time Spent (sec)"}
	for i, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		file.SetCellValue(sheet, cell, title)
	}

	for row, q := range result.Questions {
		values := []interface{}{
			row + 1,
			q.QuestionID,
			string(q.SelectedAnswer),
			string(q.CorrectAnswer),
			q.IsCorrect,
			q.TimeSpentSec,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			file.SetCellValue(sheet, cell, v)
		}
	}

	// Итоговая строка под разбивкой
	summaryRow := len(result.Questions) + 3
	file.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow),
		fmt.Sprintf("Score: %d%% (%d/%d), time used: %d sec",
			result.Score, result.CorrectAnswers, result.TotalQuestions, result.TimeUsedSec))

	filename := fmt.Sprintf("exam_result_%d.xlsx", result.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := file.Write(c.Writer); err != nil {
		log.Printf("[ExamHandler] Ошибка выгрузки результата #%d в xlsx: %v", result.ID, err)
	}
}

// handleExamError переводит ошибки сервисного слоя в HTTP статусы
func (h *ExamHandler) handleExamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrEmptySubmission):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, apperrors.ErrQuestionResolution):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Result not found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": "Submission already processed"})
	default:
		log.Printf("[ExamHandler] Внутренняя ошибка: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}
