package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// AnswerLabel — метка варианта ответа (A–D). Пустая строка означает,
// что вопрос остался без ответа.
type AnswerLabel string

// Допустимые метки вариантов ответа
const (
	AnswerA AnswerLabel = "A"
	AnswerB AnswerLabel = "B"
	AnswerC AnswerLabel = "C"
	AnswerD AnswerLabel = "D"

	// AnswerNone — вопрос без ответа
	AnswerNone AnswerLabel = ""
)

// IsValid проверяет, что метка входит в набор A–D
func (l AnswerLabel) IsValid() bool {
	switch l {
	case AnswerA, AnswerB, AnswerC, AnswerD:
		return true
	}
	return false
}

// IsAnswered проверяет, что метка не пустая и валидная
func (l AnswerLabel) IsAnswered() bool {
	return l.IsValid()
}

// NormalizeAnswer приводит произвольную строку к метке варианта.
// Нестрогое декодирование: всё, что не является валидной меткой A–D,
// превращается в "без ответа", а не в ошибку. Строгость остаётся на
// этапе подсчёта (без ответа = неверно).
func NormalizeAnswer(raw string) AnswerLabel {
	label := AnswerLabel(strings.ToUpper(strings.TrimSpace(raw)))
	if !label.IsValid() {
		return AnswerNone
	}
	return label
}

// Option представляет один вариант ответа с меткой и текстом
type Option struct {
	Label AnswerLabel `json:"label"`
	Text  string      `json:"text"`
}

// OptionList — пользовательский тип для работы с JSONB
type OptionList []Option

// Scan реализует интерфейс sql.Scanner для OptionList
// Используется GORM для чтения JSONB данных из базы
func (o *OptionList) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = OptionList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = OptionList{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для OptionList
// Используется GORM для записи OptionList в JSONB в базе
func (o OptionList) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Уровни сложности вопроса
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question представляет вопрос из банка экзаменационных вопросов.
// После того как вопрос попал в сохранённый результат, его правка не меняет
// прошлые результаты: результат хранит снимок ответа и правильности.
type Question struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	SubjectID     uint        `gorm:"not null;index:idx_subject_year_topic" json:"subject_id"`
	Year          int         `gorm:"not null;index:idx_subject_year_topic" json:"year"`
	Topic         string      `gorm:"size:100;not null;index:idx_subject_year_topic" json:"topic"`
	Text          string      `gorm:"type:text;not null" json:"text"`
	Options       OptionList  `gorm:"type:jsonb;not null" json:"options"`
	CorrectOption AnswerLabel `gorm:"size:1;not null" json:"correct_option,omitempty"`
	Explanation   string      `gorm:"type:text;not null;default:''" json:"explanation,omitempty"`
	Difficulty    string      `gorm:"size:10;not null;default:'medium'" json:"difficulty"`
	IsActive      bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранная метка правильным ответом.
// Вопрос без ответа всегда считается неверным.
func (q *Question) IsCorrect(selected AnswerLabel) bool {
	return selected.IsValid() && selected == q.CorrectOption
}

// HasOption проверяет, есть ли у вопроса вариант с такой меткой
func (q *Question) HasOption(label AnswerLabel) bool {
	for _, opt := range q.Options {
		if opt.Label == label {
			return true
		}
	}
	return false
}

// Sanitized возвращает копию вопроса без правильного ответа и пояснения.
// Используется в экзаменационном режиме: ответы не должны утекать клиенту
// до отправки.
func (q *Question) Sanitized() Question {
	clean := *q
	clean.CorrectOption = AnswerNone
	clean.Explanation = ""
	return clean
}
