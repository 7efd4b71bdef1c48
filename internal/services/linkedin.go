package services

import (
	"fmt"
	"strings"
)

// LinkedInPostRequest describes the project a student is announcing.
type LinkedInPostRequest struct {
	ProjectTitle    string   `json:"project_title" binding:"required,max=255"`
	TechStack       []string `json:"tech_stack"`
	StudentName     string   `json:"student_name"`
	DifficultyLevel string   `json:"difficulty_level"`
}

const maxHashtagTechs = 5

// GenerateLinkedInPost renders a share text announcing a project start. The
// first five technologies also become hashtags.
func GenerateLinkedInPost(req *LinkedInPostRequest) string {
	tags := make([]string, 0, maxHashtagTechs)
	for _, tech := range req.TechStack {
		if len(tags) == maxHashtagTechs {
			break
		}
		if tag := hashtag(tech); tag != "" {
			tags = append(tags, tag)
		}
	}

	difficulty := req.DifficultyLevel
	if difficulty == "" {
		difficulty = defaultDifficulty
	}

	var b strings.Builder
	b.WriteString("🚀 Excited to announce that I'm starting a new AI project!\n\n")
	fmt.Fprintf(&b, "📌 Project: %s\n", req.ProjectTitle)
	fmt.Fprintf(&b, "🎯 Difficulty: %s\n", difficulty)
	if len(req.TechStack) > 0 {
		fmt.Fprintf(&b, "💻 Tech Stack: %s\n", strings.Join(req.TechStack, ", "))
	}
	b.WriteString("\nI'm building it through the SanaPath AI platform alongside thousands of students working on real-world AI solutions.\n\n")
	b.WriteString("Looking forward to sharing my progress and connecting with fellow AI enthusiasts!\n\n")
	if len(tags) > 0 {
		b.WriteString(strings.Join(tags, " "))
		b.WriteString(" ")
	}
	b.WriteString("#AI #MachineLearning #SanaPathAI #BuildInPublic #LearningInPublic\n\n")
	b.WriteString("---\n🔗 Discover your personalized AI project at SanaPath AI")
	return b.String()
}

func hashtag(tech string) string {
	tag := strings.NewReplacer(" ", "", ".", "", "#", "").Replace(strings.TrimSpace(tech))
	if tag == "" {
		return ""
	}
	return "#" + tag
}
