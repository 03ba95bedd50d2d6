package questions

import (
	"context"
	"fmt"
	"os"

	"github.com/mcdev12/icebreaker/go/internal/models"
)

// Source is where the question pool is fetched from.
type Source interface {
	GetQuestions(ctx context.Context) (models.QuestionPool, error)
}

// FileSource reads a YAML pool document from disk on every fetch.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) GetQuestions(ctx context.Context) (models.QuestionPool, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return models.QuestionPool{}, fmt.Errorf("failed to read question file: %w", err)
	}
	return ParsePoolYAML(data)
}

// StaticSource always returns the same pool.
type StaticSource struct {
	Pool models.QuestionPool
}

func (s StaticSource) GetQuestions(ctx context.Context) (models.QuestionPool, error) {
	return s.Pool.Clone(), nil
}
