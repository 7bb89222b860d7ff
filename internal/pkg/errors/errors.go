package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	// Проверяется ДО любого обращения к банку вопросов.
	ErrValidation = errors.New("validation failed")

	// ErrQuestionResolution используется, когда хотя бы один вопрос из отправки
	// не найден в банке вопросов. Отправка отклоняется целиком, ничего не сохраняется.
	ErrQuestionResolution = errors.New("question resolution failed")

	// ErrEmptySubmission используется, когда в отправке нет ни одного
	// разрешённого вопроса (защита от деления на ноль при подсчёте процента).
	ErrEmptySubmission = errors.New("empty submission")

	// ErrConflict используется для конфликтов состояния
	// (например, повторная отправка с тем же submission_id).
	ErrConflict = errors.New("resource state conflict")
)
