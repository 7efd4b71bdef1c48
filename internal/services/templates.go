package services

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/internal/validation"
	"gopkg.in/yaml.v3"
)

//go:embed data/templates.yaml
var templatesYAML []byte

const defaultDifficulty = "Intermediate"

type projectTemplate struct {
	Key               string               `yaml:"key"`
	Title             string               `yaml:"title"`
	Description       string               `yaml:"description"`
	DifficultyLevel   string               `yaml:"difficulty_level"`
	TechStack         []string             `yaml:"tech_stack"`
	EstimatedDuration string               `yaml:"estimated_duration"`
	LearningOutcomes  []string             `yaml:"learning_outcomes"`
	Roadmap           []models.RoadmapWeek `yaml:"roadmap"`
	Tags              []string             `yaml:"tags"`
}

type templateCatalog struct {
	Aliases   map[string]string `yaml:"aliases"`
	Templates []projectTemplate `yaml:"templates"`
}

// TemplateProvider answers from a fixed catalog of project templates. It
// needs no network and never fails once the catalog has loaded.
type TemplateProvider struct {
	aliases   map[string]string
	templates []projectTemplate
	byKey     map[string]int
}

var (
	defaultTemplates     *TemplateProvider
	defaultTemplatesOnce sync.Once
)

// DefaultTemplateProvider returns the provider backed by the embedded catalog.
func DefaultTemplateProvider() *TemplateProvider {
	defaultTemplatesOnce.Do(func() {
		p, err := NewTemplateProvider(templatesYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded recommendation templates are invalid: %v", err))
		}
		defaultTemplates = p
	})
	return defaultTemplates
}

// NewTemplateProvider parses a catalog. It must hold at least
// RecommendationCount templates, each with a roadmap.
func NewTemplateProvider(data []byte) (*TemplateProvider, error) {
	var catalog templateCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if len(catalog.Templates) < RecommendationCount {
		return nil, fmt.Errorf("need at least %d templates, got %d", RecommendationCount, len(catalog.Templates))
	}

	p := &TemplateProvider{
		aliases: make(map[string]string, len(catalog.Aliases)),
		byKey:   make(map[string]int, len(catalog.Templates)),
	}
	for alias, key := range catalog.Aliases {
		p.aliases[normalizeInterest(alias)] = normalizeInterest(key)
	}
	for i, t := range catalog.Templates {
		if len(t.Roadmap) == 0 {
			return nil, fmt.Errorf("template %q has no roadmap", t.Title)
		}
		key := normalizeInterest(t.Key)
		if _, dup := p.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate template key %q", t.Key)
		}
		p.byKey[key] = i
		p.templates = append(p.templates, t)
	}
	return p, nil
}

func (p *TemplateProvider) Name() string    { return ProviderTemplates }
func (p *TemplateProvider) Available() bool { return true }

// Recommend picks one template per interest area in the order the student
// listed them, then fills the remaining slots in catalog order.
func (p *TemplateProvider) Recommend(_ context.Context, survey *Survey) (*RecommendationSet, error) {
	used := make(map[int]bool, RecommendationCount)
	picked := make([]int, 0, RecommendationCount)

	for _, interest := range survey.InterestAreas {
		if len(picked) == RecommendationCount {
			break
		}
		idx, ok := p.lookup(interest)
		if !ok || used[idx] {
			continue
		}
		used[idx] = true
		picked = append(picked, idx)
	}
	for i := range p.templates {
		if len(picked) == RecommendationCount {
			break
		}
		if !used[i] {
			used[i] = true
			picked = append(picked, i)
		}
	}

	difficulty := validation.CanonicalSkillLevel(survey.SkillLevel)
	if difficulty == "" {
		difficulty = defaultDifficulty
	}

	recs := make([]ProjectRecommendation, 0, len(picked))
	for _, idx := range picked {
		rec := p.templates[idx].toRecommendation()
		rec.DifficultyLevel = difficulty
		if d := strings.TrimSpace(survey.ProjectDuration); d != "" {
			rec.EstimatedDuration = d
		}
		recs = append(recs, rec)
	}

	return &RecommendationSet{
		StudentName:            survey.Name,
		Recommendations:        recs,
		PersonalizationSummary: personalizationSummary(survey, difficulty),
		Provider:               ProviderTemplates,
	}, nil
}

func (p *TemplateProvider) lookup(interest string) (int, bool) {
	key := normalizeInterest(interest)
	if alias, ok := p.aliases[key]; ok {
		key = alias
	}
	idx, ok := p.byKey[key]
	return idx, ok
}

// toRecommendation deep-copies the template so callers can mutate the result.
func (t projectTemplate) toRecommendation() ProjectRecommendation {
	roadmap := make([]models.RoadmapWeek, len(t.Roadmap))
	for i, w := range t.Roadmap {
		roadmap[i] = models.RoadmapWeek{
			Week:         w.Week,
			Title:        w.Title,
			Tasks:        cloneStrings(w.Tasks),
			Resources:    cloneStrings(w.Resources),
			Deliverables: cloneStrings(w.Deliverables),
		}
	}
	return ProjectRecommendation{
		Title:             t.Title,
		Description:       t.Description,
		DifficultyLevel:   t.DifficultyLevel,
		TechStack:         cloneStrings(t.TechStack),
		EstimatedDuration: t.EstimatedDuration,
		LearningOutcomes:  cloneStrings(t.LearningOutcomes),
		Roadmap:           roadmap,
		Tags:              cloneStrings(t.Tags),
	}
}

func personalizationSummary(s *Survey, difficulty string) string {
	interests := "AI"
	if len(s.InterestAreas) > 0 {
		interests = strings.Join(s.InterestAreas, ", ")
	}
	name := s.Name
	if name == "" {
		name = "there"
	}
	summary := fmt.Sprintf("Hi %s! Based on your %s skill level and your interest in %s, these projects give you hands-on experience with the tools used in industry today.",
		name, strings.ToLower(difficulty), interests)
	if s.CareerGoal != "" {
		summary += fmt.Sprintf(" Each one builds toward your goal: %s.", s.CareerGoal)
	}
	return summary
}

func normalizeInterest(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
