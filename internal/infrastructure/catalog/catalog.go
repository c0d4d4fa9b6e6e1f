package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"codenest/internal/domain"
	"codenest/internal/platform/logger"
)

//go:embed roadmap.yaml
var roadmapYAML []byte

type caseEntry struct {
	Input       string `yaml:"input"`
	Expected    string `yaml:"expected"`
	Description string `yaml:"description"`
}

type topicEntry struct {
	Order   int         `yaml:"order"`
	Title   string      `yaml:"title"`
	Problem string      `yaml:"problem"`
	Starter string      `yaml:"starter"`
	Cases   []caseEntry `yaml:"cases"`
}

// Load разбирает встроенный каталог тем
func Load() (map[domain.Language][]domain.Topic, error) {
	return Parse(roadmapYAML)
}

func Parse(data []byte) (map[domain.Language][]domain.Topic, error) {
	var raw map[string][]topicEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	out := make(map[domain.Language][]domain.Topic, len(raw))
	for name, entries := range raw {
		lang, err := domain.ParseLanguage(name)
		if err != nil {
			return nil, fmt.Errorf("catalog language %q: %w", name, err)
		}
		seen := make(map[int]bool, len(entries))
		topics := make([]domain.Topic, 0, len(entries))
		for _, e := range entries {
			if e.Order <= 0 {
				return nil, fmt.Errorf("%s %q: %w", lang, e.Title, domain.ErrInvalidTopicOrder)
			}
			if seen[e.Order] {
				return nil, fmt.Errorf("%s: duplicate topic order %d", lang, e.Order)
			}
			seen[e.Order] = true

			t := domain.Topic{
				Language:         lang,
				Order:            e.Order,
				Title:            e.Title,
				ProblemStatement: e.Problem,
				StarterCode:      e.Starter,
			}
			for _, c := range e.Cases {
				t.TestCases = append(t.TestCases, domain.TestCase{
					Input:          c.Input,
					ExpectedOutput: c.Expected,
					Description:    c.Description,
				})
			}
			topics = append(topics, t)
		}
		sort.Slice(topics, func(i, j int) bool { return topics[i].Order < topics[j].Order })
		out[lang] = topics
	}
	return out, nil
}

type RoadmapStore interface {
	ReplaceRoadmap(ctx context.Context, language domain.Language, topics []domain.Topic) error
}

// Seed перезаливает роадмапы всех языков из каталога
func Seed(ctx context.Context, store RoadmapStore, log *logger.Logger) error {
	roadmaps, err := Load()
	if err != nil {
		return err
	}
	langs := make([]string, 0, len(roadmaps))
	for l := range roadmaps {
		langs = append(langs, string(l))
	}
	sort.Strings(langs)

	for _, l := range langs {
		lang := domain.Language(l)
		if err := store.ReplaceRoadmap(ctx, lang, roadmaps[lang]); err != nil {
			return fmt.Errorf("seed %s: %w", lang, err)
		}
		log.Info("roadmap seeded", "language", lang, "topics", len(roadmaps[lang]))
	}
	return nil
}
