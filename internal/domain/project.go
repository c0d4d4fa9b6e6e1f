package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxExecutionHistory: сколько последних запусков хранит проект
const MaxExecutionHistory = 50

// Project: песочница пользователя, набор файлов вне роадмапа
type Project struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID         `gorm:"type:uuid;index" json:"ownerId"`
	Name        string            `gorm:"size:100" json:"name"`
	Description string            `gorm:"size:500" json:"description"`
	ActiveFile  string            `json:"activeFile"`
	IsPublic    bool              `json:"isPublic"`
	Files       []ProjectFile     `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE;" json:"files"`
	Executions  []ExecutionRecord `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE;" json:"executionHistory"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `gorm:"index" json:"updatedAt"`
}

type ProjectFile struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	ProjectID    uuid.UUID `gorm:"type:uuid;index" json:"-"`
	Position     int       `json:"-"`
	Name         string    `json:"name"`
	Content      string    `json:"content"`
	Language     Language  `gorm:"size:16" json:"language"`
	LastModified time.Time `json:"lastModified"`
}

type ExecutionRecord struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	ProjectID       uuid.UUID `gorm:"type:uuid;index" json:"-"`
	FileName        string    `json:"fileName"`
	Language        Language  `gorm:"size:16" json:"language"`
	ExecutionTimeMs int64     `json:"executionTime"`
	MemoryMB        float64   `json:"memoryUsage"`
	Complexity      string    `json:"complexity,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

var defaultFiles = map[Language]struct{ name, content string }{
	LanguageJava:       {"Main.java", "public class Main {\n    public static void main(String[] args) {\n        System.out.println(\"Hello, CodeNest!\");\n    }\n}"},
	LanguagePython:     {"main.py", "# Welcome to CodeNest!\nprint(\"Hello, CodeNest!\")"},
	LanguageJavaScript: {"index.js", "// Welcome to CodeNest!\nconsole.log(\"Hello, CodeNest!\");"},
	LanguageCpp:        {"main.cpp", "#include <iostream>\n\nint main() {\n    std::cout << \"Hello, CodeNest!\" << std::endl;\n    return 0;\n}"},
	LanguageC:          {"main.c", "#include <stdio.h>\n\nint main(void) {\n    printf(\"Hello, CodeNest!\\n\");\n    return 0;\n}"},
}

// DefaultFile: стартовый файл нового проекта. Неизвестный язык даёт python.
func DefaultFile(language Language, now time.Time) ProjectFile {
	f, ok := defaultFiles[language]
	if !ok {
		language = LanguagePython
		f = defaultFiles[language]
	}
	return ProjectFile{Name: f.name, Content: f.content, Language: language, LastModified: now}
}

func NewProject(ownerID uuid.UUID, name, description string, language Language, now time.Time) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyProjectName
	}
	file := DefaultFile(language, now)
	return &Project{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(description),
		ActiveFile:  file.Name,
		Files:       []ProjectFile{file},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ProjectPatch: nil-поля не трогаем. Пустые имя и активный файл тоже игнорируются,
// а описание можно очистить.
type ProjectPatch struct {
	Files       *[]ProjectFile
	ActiveFile  *string
	Name        *string
	Description *string
}

// FilesChanged: нужно ли переписывать файлы в хранилище
func (p ProjectPatch) FilesChanged() bool {
	return p.Files != nil
}

func (pr *Project) Apply(patch ProjectPatch, now time.Time) error {
	if patch.Files != nil {
		files := make([]ProjectFile, 0, len(*patch.Files))
		for i, f := range *patch.Files {
			f.Name = strings.TrimSpace(f.Name)
			if f.Name == "" {
				return ErrEmptyFileName
			}
			if f.Language != "" {
				lang, err := ParseLanguage(string(f.Language))
				if err != nil {
					return err
				}
				f.Language = lang
			}
			if f.LastModified.IsZero() {
				f.LastModified = now
			}
			f.ID = 0
			f.ProjectID = pr.ID
			f.Position = i
			files = append(files, f)
		}
		pr.Files = files
	}
	if patch.ActiveFile != nil && *patch.ActiveFile != "" {
		pr.ActiveFile = *patch.ActiveFile
	}
	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			pr.Name = name
		}
	}
	if patch.Description != nil {
		pr.Description = strings.TrimSpace(*patch.Description)
	}
	pr.UpdatedAt = now
	return nil
}

// RecordExecution дописывает запуск и оставляет только последние MaxExecutionHistory
func (pr *Project) RecordExecution(rec ExecutionRecord) {
	rec.ProjectID = pr.ID
	pr.Executions = append(pr.Executions, rec)
	if n := len(pr.Executions); n > MaxExecutionHistory {
		pr.Executions = append([]ExecutionRecord(nil), pr.Executions[n-MaxExecutionHistory:]...)
	}
	pr.UpdatedAt = rec.Timestamp
}
