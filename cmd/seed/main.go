package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/yourusername/examprep-api/internal/config"
	"github.com/yourusername/examprep-api/internal/domain/entity"
	pgRepo "github.com/yourusername/examprep-api/internal/repository/postgres"
	"github.com/yourusername/examprep-api/pkg/database"
)

// seedFile описывает формат файла наполнения банка вопросов.
type seedFile struct {
	Subjects  []seedSubject  `json:"subjects"`
	Questions []seedQuestion `json:"questions"`
}

type seedSubject struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type seedQuestion struct {
	SubjectCode   string            `json:"subject_code"`
	Year          int               `json:"year"`
	Topic         string            `json:"topic"`
	Text          string            `json:"text"`
	Options       entity.OptionList `json:"options"`
	CorrectOption string            `json:"correct_option"`
	Explanation   string            `json:"explanation"`
	Difficulty    string            `json:"difficulty"`
}

// Утилита наполнения банка вопросов из JSON-файла.
// Предметы создаются при отсутствии, вопросы пишутся пакетом.
func main() {
	filePath := flag.String("file", "seed/questions.json", "путь к JSON-файлу с предметами и вопросами")
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	raw, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("Failed to read seed file %s: %v", *filePath, err)
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		log.Fatalf("Failed to parse seed file: %v", err)
	}

	subjectRepo := pgRepo.NewSubjectRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)

	// Создаем предметы и строим отображение код -> ID.
	// Уже существующие предметы берем из базы, а не падаем на дубликате.
	existing, err := subjectRepo.GetActive()
	if err != nil {
		log.Fatalf("Failed to list subjects: %v", err)
	}
	codeToID := make(map[string]uint, len(existing))
	for _, s := range existing {
		codeToID[s.Code] = s.ID
	}

	created := 0
	for _, src := range seed.Subjects {
		if _, ok := codeToID[src.Code]; ok {
			continue
		}
		subject := &entity.Subject{
			Name:        src.Name,
			Code:        src.Code,
			Description: src.Description,
			IsActive:    true,
		}
		if err := subjectRepo.Create(subject); err != nil {
			log.Fatalf("Failed to create subject %s: %v", src.Code, err)
		}
		codeToID[src.Code] = subject.ID
		created++
	}
	log.Printf("[Seed] Предметы: %d создано, %d уже было", created, len(seed.Subjects)-created)

	questions := make([]entity.Question, 0, len(seed.Questions))
	for i, src := range seed.Questions {
		subjectID, ok := codeToID[src.SubjectCode]
		if !ok {
			log.Fatalf("Question #%d references unknown subject code %q", i+1, src.SubjectCode)
		}

		correct := entity.NormalizeAnswer(src.CorrectOption)
		if !correct.IsAnswered() {
			log.Fatalf("Question #%d has invalid correct_option %q", i+1, src.CorrectOption)
		}

		q := entity.Question{
			SubjectID:     subjectID,
			Year:          src.Year,
			Topic:         src.Topic,
			Text:          src.Text,
			Options:       src.Options,
			CorrectOption: correct,
			Explanation:   src.Explanation,
			Difficulty:    src.Difficulty,
			IsActive:      true,
		}
		if !q.HasOption(correct) {
			log.Fatalf("Question #%d: correct option %s is not among its options", i+1, correct)
		}
		questions = append(questions, q)
	}

	if len(questions) > 0 {
		if err := questionRepo.CreateBatch(questions); err != nil {
			log.Fatalf("Failed to create questions: %v", err)
		}
	}

	log.Printf("[Seed] Загружено вопросов: %d", len(questions))
}
