package examsession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// ============================================================================
// Фейковые часы и моки
// ============================================================================

// fakeClock — управляемые часы для проверки учёта времени на вопрос
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// MockQuestionLoader реализует QuestionLoader
type MockQuestionLoader struct {
	mock.Mock
}

func (m *MockQuestionLoader) LoadQuestions(ctx context.Context, params Params) ([]entity.Question, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

// MockGateway реализует Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) SubmitExam(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SubmitResult), args.Error(1)
}

func sessionQuestions(n int) []entity.Question {
	questions := make([]entity.Question, n)
	for i := 0; i < n; i++ {
		questions[i] = entity.Question{
			ID:      uint(i + 1),
			Text:    "Вопрос",
			Options: entity.OptionList{{Label: entity.AnswerA, Text: "1"}, {Label: entity.AnswerB, Text: "2"}},
		}
	}
	return questions
}

func newTestSession(t *testing.T, n int, totalTimeSec int) (*Session, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s, err := NewSession(sessionQuestions(n), Params{
		SubjectIDs:   []uint{1},
		Year:         2023,
		Mode:         "exam",
		TotalTimeSec: totalTimeSec,
	}, clock)
	require.NoError(t, err)
	return s, clock
}

// ============================================================================
// Запуск сессии
// ============================================================================

func TestStart_LoadsQuestionsAndOpensSession(t *testing.T) {
	// Arrange
	loader := new(MockQuestionLoader)
	params := Params{SubjectIDs: []uint{1}, Year: 2023, Mode: "exam", TotalTimeSec: 600}
	loader.On("LoadQuestions", mock.Anything, params).Return(sessionQuestions(3), nil)

	// Act
	s, err := Start(context.Background(), loader, params)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, s.State())
	assert.Equal(t, 3, s.QuestionCount())
	assert.Equal(t, 0, s.CurrentIndex(), "Сессия начинается с первого вопроса")
	assert.Equal(t, 600, s.RemainingSec())
	assert.NotEmpty(t, s.SubmissionID(), "SubmissionID генерируется при старте")
}

func TestStart_LoaderErrorBlocksEntry(t *testing.T) {
	// Ошибка загрузки не должна приводить к пустому экзамену
	loader := new(MockQuestionLoader)
	loader.On("LoadQuestions", mock.Anything, mock.Anything).Return(nil, errors.New("network down"))

	s, err := Start(context.Background(), loader, Params{SubjectIDs: []uint{1}, Year: 2023})

	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "network down")
}

func TestNewSession_EmptyQuestions(t *testing.T) {
	// Пустая выборка — возврат на экран настройки, а не пустой экзамен
	s, err := NewSession(nil, Params{}, newFakeClock())

	require.Error(t, err)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNoQuestions)
}

// ============================================================================
// Ответы и навигация
// ============================================================================

func TestSession_SelectAnswer_PersistsAcrossNavigation(t *testing.T) {
	// Arrange
	s, _ := newTestSession(t, 3, 600)

	// Act: отвечаем, уходим и возвращаемся
	require.NoError(t, s.SelectAnswer(0, "B"))
	require.NoError(t, s.Navigate(2))
	require.NoError(t, s.Navigate(0))

	// Assert
	assert.Equal(t, entity.AnswerB, s.Answer(0), "Ответ должен сохраняться при навигации")
}

func TestSession_SelectAnswer_OverwriteAndClear(t *testing.T) {
	// Arrange
	s, _ := newTestSession(t, 2, 600)

	// Act & Assert: перезапись
	require.NoError(t, s.SelectAnswer(0, "A"))
	require.NoError(t, s.SelectAnswer(0, "C"))
	assert.Equal(t, entity.AnswerC, s.Answer(0))

	// Невалидная метка нестрого приводится к "без ответа"
	require.NoError(t, s.SelectAnswer(0, "Z"))
	assert.Equal(t, entity.AnswerNone, s.Answer(0))
}

func TestSession_Navigate_OutOfRange(t *testing.T) {
	// Arrange
	s, _ := newTestSession(t, 3, 600)

	// Act & Assert
	assert.ErrorIs(t, s.Navigate(-1), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.Navigate(3), ErrIndexOutOfRange)
	assert.Equal(t, 0, s.CurrentIndex(), "Неудачный переход не меняет текущий вопрос")
}

func TestSession_ToggleFlag(t *testing.T) {
	// Arrange
	s, _ := newTestSession(t, 2, 600)

	// Act & Assert: пометка переключается туда и обратно
	flagged, err := s.ToggleFlag(1)
	require.NoError(t, err)
	assert.True(t, flagged)
	assert.True(t, s.IsFlagged(1))

	flagged, err = s.ToggleFlag(1)
	require.NoError(t, err)
	assert.False(t, flagged)
	assert.False(t, s.IsFlagged(1))
}

func TestSession_Summary(t *testing.T) {
	// Arrange
	s, _ := newTestSession(t, 5, 600)
	require.NoError(t, s.SelectAnswer(0, "A"))
	require.NoError(t, s.SelectAnswer(2, "B"))
	_, err := s.ToggleFlag(4)
	require.NoError(t, err)

	// Act
	summary := s.Summary()

	// Assert
	assert.Equal(t, Summary{Answered: 2, Unanswered: 3, Flagged: 1}, summary)
}

// ============================================================================
// Учёт времени на вопрос
// ============================================================================

func TestSession_TimeSpentAccumulatesPerQuestion(t *testing.T) {
	// Arrange
	s, clock := newTestSession(t, 3, 600)

	// Act: 10 секунд на вопросе 0, 5 на вопросе 1, возврат на 0 ещё на 7
	clock.Advance(10 * time.Second)
	require.NoError(t, s.Navigate(1))
	clock.Advance(5 * time.Second)
	require.NoError(t, s.Navigate(0))
	clock.Advance(7 * time.Second)
	require.NoError(t, s.Navigate(2))

	// Assert: время накапливается и не задваивается
	gateway := new(MockGateway)
	gateway.On("SubmitExam", mock.Anything, mock.Anything).Return(&SubmitResult{}, nil)
	_, err := s.Submit(context.Background(), gateway)
	require.NoError(t, err)

	req := gateway.Calls[0].Arguments.Get(1).(SubmitRequest)
	assert.Equal(t, 17, req.Answers[0].TimeSpentSec, "Два захода на вопрос 0: 10 + 7 секунд")
	assert.Equal(t, 5, req.Answers[1].TimeSpentSec)
	assert.Equal(t, 0, req.Answers[2].TimeSpentSec, "На вопросе 2 время не проводили")
}

// ============================================================================
// Тики и истечение времени
// ============================================================================

func TestSession_Tick_CountsDownAndClampsAtZero(t *testing.T) {
	// Arrange
	s, _ := newTestSession(t, 1, 3)

	// Act & Assert
	assert.False(t, s.Tick())
	assert.Equal(t, 2, s.RemainingSec())
	assert.False(t, s.Tick())
	assert.True(t, s.Tick(), "Третий тик доводит время до нуля")
	assert.Equal(t, 0, s.RemainingSec())
	assert.Equal(t, StateTimedOut, s.State())

	// Повторные тики после истечения ничего не делают
	assert.False(t, s.Tick())
	assert.Equal(t, 0, s.RemainingSec(), "Время не уходит в минус")
}

func TestSession_Tick_FiresTimeoutExactlyOnce(t *testing.T) {
	// Arrange
	s, _ := newTestSession(t, 1, 1)
	fired := 0
	s.SetOnTimeout(func() { fired++ })

	// Act
	s.Tick()
	s.Tick()
	s.Tick()

	// Assert
	assert.Equal(t, 1, fired, "Обработчик истечения должен сработать ровно один раз")
}

func TestSession_StartTimer_TicksAndStopsOnExpiry(t *testing.T) {
	// Arrange: короткий интервал, 2 секунды бюджета
	s, _ := newTestSession(t, 1, 2)
	done := make(chan struct{})
	s.SetOnTimeout(func() { close(done) })

	// Act
	timer := s.StartTimer(context.Background(), 5*time.Millisecond)

	// Assert: таймер докручивает до нуля и завершает горутину
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("таймер не довёл сессию до timed_out")
	}

	select {
	case <-timer.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("горутина таймера не завершилась после истечения")
	}
	assert.Equal(t, StateTimedOut, s.State())
}

func TestTimer_StopIsIdempotent(t *testing.T) {
	// Arrange
	s, _ := newTestSession(t, 1, 600)
	timer := s.StartTimer(context.Background(), time.Hour)

	// Act: повторные остановки безопасны
	timer.Stop()
	timer.Stop()

	// Assert
	select {
	case <-timer.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("горутина таймера не завершилась после Stop")
	}
}

// ============================================================================
// Отправка
// ============================================================================

func TestSession_Submit_SendsAllPresentedQuestions(t *testing.T) {
	// Отправляются ВСЕ предъявленные вопросы, включая оставшиеся без ответа
	s, _ := newTestSession(t, 3, 600)
	require.NoError(t, s.SelectAnswer(0, "A"))

	gateway := new(MockGateway)
	gateway.On("SubmitExam", mock.Anything, mock.Anything).Return(&SubmitResult{ID: 1, Score: 33}, nil)

	// Act
	result, err := s.Submit(context.Background(), gateway)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 33, result.Score)
	assert.Equal(t, StateSubmitted, s.State())

	req := gateway.Calls[0].Arguments.Get(1).(SubmitRequest)
	assert.Equal(t, s.SubmissionID(), req.SubmissionID)
	assert.Equal(t, uint(1), req.SubjectID)
	assert.Equal(t, "exam", req.ExamType)
	require.Len(t, req.Answers, 3, "Вопросы без ответа тоже уходят на сервер")
	assert.Equal(t, "A", req.Answers[0].SelectedAnswer)
	assert.Equal(t, "", req.Answers[1].SelectedAnswer)
	assert.Equal(t, "", req.Answers[2].SelectedAnswer)
}

func TestSession_Submit_GatewayErrorReturnsToInProgress(t *testing.T) {
	// При ошибке шлюза сессия возвращается в in_progress,
	// автоматических повторов нет — решение за человеком
	s, _ := newTestSession(t, 2, 600)

	gateway := new(MockGateway)
	gateway.On("SubmitExam", mock.Anything, mock.Anything).Return(nil, errors.New("503"))

	result, err := s.Submit(context.Background(), gateway)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, StateInProgress, s.State(), "После неудачи можно повторить отправку вручную")
	gateway.AssertNumberOfCalls(t, "SubmitExam", 1)

	// Повторная ручная отправка с тем же SubmissionID
	gateway2 := new(MockGateway)
	gateway2.On("SubmitExam", mock.Anything, mock.MatchedBy(func(req SubmitRequest) bool {
		return req.SubmissionID == s.SubmissionID()
	})).Return(&SubmitResult{ID: 7}, nil)

	_, err = s.Submit(context.Background(), gateway2)
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, s.State())
}

func TestSession_Submit_AfterTimeout(t *testing.T) {
	// Отправка по истечении времени допустима из timed_out
	s, _ := newTestSession(t, 1, 1)
	s.Tick()
	require.Equal(t, StateTimedOut, s.State())

	gateway := new(MockGateway)
	gateway.On("SubmitExam", mock.Anything, mock.Anything).Return(&SubmitResult{}, nil)

	_, err := s.Submit(context.Background(), gateway)

	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, s.State(), "timed_out — терминальное состояние, отправка его не меняет")

	req := gateway.Calls[0].Arguments.Get(1).(SubmitRequest)
	assert.Equal(t, 1, req.TimeUsedSec, "Использовано всё отведённое время")
}

func TestSession_Submit_FromTerminalState(t *testing.T) {
	// Arrange
	s, _ := newTestSession(t, 1, 600)
	require.NoError(t, s.Abandon())

	gateway := new(MockGateway)

	// Act
	_, err := s.Submit(context.Background(), gateway)

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
	gateway.AssertNotCalled(t, "SubmitExam", mock.Anything, mock.Anything)
}

// ============================================================================
// Отказ от сессии
// ============================================================================

func TestSession_Abandon(t *testing.T) {
	// Arrange
	s, _ := newTestSession(t, 2, 600)
	timer := s.StartTimer(context.Background(), time.Hour)

	// Act
	err := s.Abandon()

	// Assert: сессия завершена, таймер остановлен
	require.NoError(t, err)
	assert.Equal(t, StateAbandoned, s.State())
	select {
	case <-timer.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("таймер не остановился после Abandon")
	}

	// Повторный отказ — ошибка
	assert.ErrorIs(t, s.Abandon(), ErrAlreadyTerminal)

	// Действия над завершённой сессией отклоняются
	assert.ErrorIs(t, s.SelectAnswer(0, "A"), ErrNotInProgress)
	assert.ErrorIs(t, s.Navigate(1), ErrNotInProgress)
}

func TestState_IsTerminal(t *testing.T) {
	assert.True(t, StateSubmitted.IsTerminal())
	assert.True(t, StateAbandoned.IsTerminal())
	assert.True(t, StateTimedOut.IsTerminal())
	assert.False(t, StateLoading.IsTerminal())
	assert.False(t, StateInProgress.IsTerminal())
	assert.False(t, StateSubmitting.IsTerminal())
}
