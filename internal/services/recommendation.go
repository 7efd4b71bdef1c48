package services

import (
	"context"
	"errors"
	"time"

	"github.com/sanapath/sanapath/internal/config"
	"github.com/sanapath/sanapath/internal/metrics"
	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/pkg/logger"
	gobreaker "github.com/sony/gobreaker/v2"
)

// RecommendationCount is the number of recommendations in every set.
const RecommendationCount = 5

// RoadmapWeekCount is the length of every recommendation roadmap.
const RoadmapWeekCount = 4

// Survey is a student's answers to the onboarding questionnaire.
type Survey struct {
	Name                 string   `json:"name" binding:"required,max=100"`
	Email                string   `json:"email" binding:"required,email"`
	University           string   `json:"university"`
	ProgrammingLanguages []string `json:"programming_languages" binding:"required,min=1"`
	SkillLevel           string   `json:"skill_level" binding:"required,skill_level"`
	AIMLExperience       string   `json:"ai_ml_experience"`
	InterestAreas        []string `json:"interest_areas" binding:"required,min=1"`
	PreferredProjectType string   `json:"preferred_project_type"`
	IndustryInterest     []string `json:"industry_interest"`
	CareerGoal           string   `json:"career_goal" binding:"required"`
	LearningStyle        string   `json:"learning_style"`
	TimeCommitment       string   `json:"time_commitment"`
	ProjectDuration      string   `json:"project_duration"`
	TeamPreference       string   `json:"team_preference"`
	CollaborationTools   []string `json:"collaboration_tools"`
}

// ProjectRecommendation is one suggested project with its 4-week plan.
type ProjectRecommendation struct {
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	DifficultyLevel   string               `json:"difficulty_level"`
	TechStack         []string             `json:"tech_stack"`
	EstimatedDuration string               `json:"estimated_duration"`
	LearningOutcomes  []string             `json:"learning_outcomes"`
	Roadmap           []models.RoadmapWeek `json:"roadmap"`
	Tags              []string             `json:"tags"`
}

// RecommendationSet is the answer to a survey submission.
type RecommendationSet struct {
	StudentName            string                  `json:"student_name"`
	Recommendations        []ProjectRecommendation `json:"recommendations"`
	PersonalizationSummary string                  `json:"personalization_summary"`
	Provider               string                  `json:"provider"`
}

// RecommendationProvider is one strategy for producing a RecommendationSet.
type RecommendationProvider interface {
	Name() string
	// Available reports whether the provider has the credentials it needs.
	Available() bool
	Recommend(ctx context.Context, survey *Survey) (*RecommendationSet, error)
}

// RecommendationService picks a provider for each survey. External providers
// are tried in order; the template provider answers when none succeeds.
type RecommendationService struct {
	providers []RecommendationProvider
	fallback  RecommendationProvider
	demoMode  bool
	timeout   time.Duration
	usage     *AIUsageService
}

// NewRecommendationService builds the provider chain from configuration:
// Gemini, Anthropic, OpenAI, then a self-hosted Ollama, each behind a
// circuit breaker.
func NewRecommendationService(cfg *config.AIConfig, usage *AIUsageService) *RecommendationService {
	chain := []RecommendationProvider{
		NewGeminiProvider(cfg.Gemini, cfg),
		NewAnthropicProvider(cfg.Anthropic, cfg),
		NewOpenAIProvider(cfg.OpenAI, cfg),
		NewOllamaProvider(cfg.Ollama, cfg),
	}
	wrapped := make([]RecommendationProvider, 0, len(chain))
	for _, p := range chain {
		wrapped = append(wrapped, WithCircuitBreaker(p))
	}
	return NewRecommendationServiceWithProviders(
		DefaultTemplateProvider(), cfg.DemoMode,
		time.Duration(cfg.TimeoutSeconds)*time.Second, usage, wrapped...)
}

// NewRecommendationServiceWithProviders wires an explicit chain.
func NewRecommendationServiceWithProviders(fallback RecommendationProvider, demoMode bool, timeout time.Duration, usage *AIUsageService, providers ...RecommendationProvider) *RecommendationService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RecommendationService{
		providers: providers,
		fallback:  fallback,
		demoMode:  demoMode,
		timeout:   timeout,
		usage:     usage,
	}
}

// DemoMode reports whether external providers are bypassed.
func (s *RecommendationService) DemoMode() bool {
	return s.demoMode
}

// ActiveProviders lists the names of configured external providers in order.
func (s *RecommendationService) ActiveProviders() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		if p.Available() {
			names = append(names, p.Name())
		}
	}
	return names
}

// Generate always returns a set of exactly RecommendationCount entries.
// Provider failures are logged and never returned.
func (s *RecommendationService) Generate(ctx context.Context, survey *Survey, userID uint) *RecommendationSet {
	if !s.demoMode {
		for _, p := range s.providers {
			if !p.Available() {
				continue
			}
			set, err := s.try(ctx, p, survey, userID)
			if err == nil {
				return set
			}
			logger.Warn().Err(err).Str("provider", p.Name()).Msg("[Recommend] provider failed, trying next")
		}
	}

	set, err := s.fallback.Recommend(ctx, survey)
	if err != nil {
		// The template provider only fails on a broken embedded dataset.
		logger.Error().Err(err).Msg("[Recommend] template provider failed")
		return &RecommendationSet{StudentName: survey.Name, Provider: s.fallback.Name()}
	}
	set.Provider = s.fallback.Name()
	metrics.RecordProvider(s.fallback.Name(), metrics.OutcomeSuccess, 0)
	return set
}

func (s *RecommendationService) try(ctx context.Context, p RecommendationProvider, survey *Survey, userID uint) (*RecommendationSet, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	set, err := p.Recommend(callCtx, survey)
	latency := time.Since(start)

	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = metrics.OutcomeSkipped
	case errors.Is(err, ErrInvalidProviderResponse):
		outcome = metrics.OutcomeInvalid
	default:
		outcome = metrics.OutcomeError
	}
	metrics.RecordProvider(p.Name(), outcome, latency)

	if outcome != metrics.OutcomeSkipped {
		s.usage.Record(&models.AIUsageLog{
			UserID:       optionalID(userID),
			Provider:     p.Name(),
			Model:        modelOf(p),
			LatencyMs:    latency.Milliseconds(),
			Success:      err == nil,
			ErrorMessage: truncate(errString(err), 500),
		})
	}

	if err != nil {
		return nil, err
	}
	set.Provider = p.Name()
	if set.StudentName == "" {
		set.StudentName = survey.Name
	}
	logger.Info().Str("provider", p.Name()).Dur("latency", latency).Msg("[Recommend] recommendations generated")
	return set, nil
}

func modelOf(p RecommendationProvider) string {
	if m, ok := p.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
