package allowlist

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/icebreaker/go/internal/names"
)

// Source is where allowed names come from.
type Source interface {
	GetAllowedNames(ctx context.Context) ([]string, error)
}

// FileSource reads a YAML document with a top-level `names` list.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

type fileDocument struct {
	Names []string `yaml:"names"`
}

func (s *FileSource) GetAllowedNames(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read allow-list file: %w", err)
	}
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse allow-list file: %w", err)
	}
	return doc.Names, nil
}

// StaticSource always returns the same names.
type StaticSource []string

func (s StaticSource) GetAllowedNames(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

// List is the set of participants allowed to draw and answer the survey.
// Until a load has completed nobody is allowed. A disabled list allows every
// non-empty name.
type List struct {
	disabled bool
	set      atomic.Pointer[map[string]struct{}]
}

func New() *List {
	return &List{}
}

// NewDisabled returns a list that only rejects empty names.
func NewDisabled() *List {
	return &List{disabled: true}
}

// NewFromNames returns a loaded list.
func NewFromNames(allowed []string) *List {
	l := &List{}
	l.Replace(allowed)
	return l
}

func (l *List) Disabled() bool {
	return l.disabled
}

// Loaded reports whether a set of names has been published.
func (l *List) Loaded() bool {
	return l.disabled || l.set.Load() != nil
}

// Replace publishes a new set built from allowed, normalized.
func (l *List) Replace(allowed []string) {
	set := make(map[string]struct{}, len(allowed))
	for _, n := range allowed {
		if key := names.Normalize(n); key != "" {
			set[key] = struct{}{}
		}
	}
	l.set.Store(&set)
}

func (l *List) IsAllowed(name string) bool {
	key := names.Normalize(name)
	if key == "" {
		return false
	}
	if l.disabled {
		return true
	}
	set := l.set.Load()
	if set == nil {
		return false
	}
	_, ok := (*set)[key]
	return ok
}

func (l *List) Len() int {
	if set := l.set.Load(); set != nil {
		return len(*set)
	}
	return 0
}

// Load fetches names from source and publishes them. A failed fetch
// publishes an empty set so the list counts as loaded but allows nobody.
func (l *List) Load(ctx context.Context, source Source) error {
	if l.disabled {
		log.Info().Msg("allow-list disabled, skipping load")
		return nil
	}
	allowed, err := source.GetAllowedNames(ctx)
	if err != nil {
		l.Replace(nil)
		log.Warn().Err(err).Msg("allow-list load failed, nobody is allowed")
		return fmt.Errorf("load allow-list: %w", err)
	}
	l.Replace(allowed)
	log.Info().Int("names", l.Len()).Msg("allow-list loaded")
	return nil
}
