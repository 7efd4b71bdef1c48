package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProviderResponse marks provider output that cannot be used.
var ErrInvalidProviderResponse = errors.New("invalid provider response")

const recommendationSystemPrompt = `You are an expert AI career counselor and project recommendation engine for the SanaPath AI platform.

Analyze the student profile and recommend personalized AI/ML projects that match their skills, interests and career goals.

For each recommendation provide:
1. A compelling project title
2. A detailed description (2-3 sentences)
3. Difficulty level (Beginner, Intermediate, Advanced, Expert)
4. Complete tech stack (languages, frameworks, tools)
5. Estimated duration
6. Key learning outcomes (3-5 items)
7. A 4-week implementation roadmap with specific tasks, resources and deliverables
8. Relevant tags for discoverability

Respond with JSON only. No markdown, no commentary. Use exactly this structure:
{
  "recommendations": [
    {
      "title": "Project Title",
      "description": "Detailed description...",
      "difficulty_level": "Intermediate",
      "tech_stack": ["Python", "PyTorch", "FastAPI"],
      "estimated_duration": "4 weeks",
      "learning_outcomes": ["outcome1", "outcome2", "outcome3"],
      "roadmap": [
        {"week": 1, "title": "Foundation", "tasks": ["task1", "task2"], "resources": ["resource1"], "deliverables": ["deliverable1"]}
      ],
      "tags": ["NLP", "Deep Learning"]
    }
  ],
  "personalization_summary": "Why these projects fit the student..."
}

Generate exactly 5 unique project recommendations.`

// BuildRecommendationPrompt embeds every survey answer in the user prompt.
func BuildRecommendationPrompt(s *Survey) string {
	var b strings.Builder
	b.WriteString("Student Profile:\n")
	line := func(label, value string) {
		if value == "" {
			value = "Not specified"
		}
		fmt.Fprintf(&b, "- %s: %s\n", label, value)
	}
	line("Name", s.Name)
	line("University", s.University)
	line("Programming Languages", strings.Join(s.ProgrammingLanguages, ", "))
	line("Skill Level", s.SkillLevel)
	line("AI/ML Experience", s.AIMLExperience)
	line("Interest Areas", strings.Join(s.InterestAreas, ", "))
	line("Preferred Project Type", s.PreferredProjectType)
	line("Industries of Interest", strings.Join(s.IndustryInterest, ", "))
	line("Career Goal", s.CareerGoal)
	line("Learning Style", s.LearningStyle)
	line("Time Commitment", s.TimeCommitment)
	line("Preferred Duration", s.ProjectDuration)
	line("Team Preference", s.TeamPreference)
	line("Collaboration Tools", strings.Join(s.CollaborationTools, ", "))
	b.WriteString("\nBased on this profile, generate 5 personalized AI project recommendations with detailed 4-week roadmaps. ")
	b.WriteString("Match the student's skill level, interests and career goal.\n")
	return b.String()
}

// stripCodeFence removes a surrounding ```json ... ``` block if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language hint on the opening fence
		s = s[nl+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// ParseRecommendationSet decodes provider output. Fewer than five usable
// recommendations, a roadmap shorter than four weeks, or a week without tasks
// is an ErrInvalidProviderResponse. Extra recommendations and weeks are dropped.
func ParseRecommendationSet(raw string, survey *Survey) (*RecommendationSet, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidProviderResponse)
	}

	var payload struct {
		Recommendations        []ProjectRecommendation `json:"recommendations"`
		PersonalizationSummary string                  `json:"personalization_summary"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProviderResponse, err)
	}

	if len(payload.Recommendations) < RecommendationCount {
		return nil, fmt.Errorf("%w: got %d recommendations, need %d",
			ErrInvalidProviderResponse, len(payload.Recommendations), RecommendationCount)
	}
	recs := payload.Recommendations[:RecommendationCount]
	for i, r := range recs {
		if strings.TrimSpace(r.Title) == "" {
			return nil, fmt.Errorf("%w: recommendation %d has no title", ErrInvalidProviderResponse, i+1)
		}
		if len(r.Roadmap) < RoadmapWeekCount {
			return nil, fmt.Errorf("%w: recommendation %d has %d roadmap weeks, need %d",
				ErrInvalidProviderResponse, i+1, len(r.Roadmap), RoadmapWeekCount)
		}
		weeks := r.Roadmap[:RoadmapWeekCount]
		for w, week := range weeks {
			if !hasTask(week.Tasks) {
				return nil, fmt.Errorf("%w: recommendation %d week %d has no tasks",
					ErrInvalidProviderResponse, i+1, w+1)
			}
		}
		recs[i].Roadmap = weeks
	}

	return &RecommendationSet{
		StudentName:            survey.Name,
		Recommendations:        recs,
		PersonalizationSummary: payload.PersonalizationSummary,
	}, nil
}

func hasTask(tasks []string) bool {
	for _, t := range tasks {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return false
}
