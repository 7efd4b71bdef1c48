package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sanapath/sanapath/internal/metrics"
	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/pkg/logger"
	"gorm.io/gorm"
)

// Community list paging limits.
const (
	DefaultCommunityPerPage = 10
	MaxCommunityPerPage     = 50
)

// PublishRequest puts a project on the community board.
type PublishRequest struct {
	Title                   string   `json:"title" binding:"required,max=255"`
	Description             string   `json:"description" binding:"required"`
	DifficultyLevel         string   `json:"difficulty_level" binding:"max=50"`
	TechStack               []string `json:"tech_stack"`
	Tags                    []string `json:"tags"`
	EstimatedDuration       string   `json:"estimated_duration" binding:"max=50"`
	RoadmapJSON             string   `json:"roadmap_json"`
	LookingForCollaborators *bool    `json:"looking_for_collaborators"`
	MaxTeamSize             int      `json:"max_team_size" binding:"omitempty,min=1,max=50"`
}

// CommunityFilter selects published projects. Zero values mean no filter.
type CommunityFilter struct {
	Difficulty              string `form:"difficulty"`
	Tech                    string `form:"tech"`
	LookingForCollaborators *bool  `form:"looking_for_collaborators"`
	Search                  string `form:"search"`
	Page                    int    `form:"page" binding:"omitempty,min=1"`
	PerPage                 int    `form:"per_page" binding:"omitempty,min=1,max=50"`
}

// ProjectSettingsRequest changes the collaboration settings of an owned project.
type ProjectSettingsRequest struct {
	LookingForCollaborators *bool `json:"looking_for_collaborators"`
	MaxTeamSize             *int  `json:"max_team_size" binding:"omitempty,min=1,max=50"`
}

// CommunityProject is the public view of a community project.
type CommunityProject struct {
	ID                      uint      `json:"id"`
	UUID                    string    `json:"uuid"`
	Title                   string    `json:"title"`
	Description             string    `json:"description"`
	DifficultyLevel         string    `json:"difficulty_level"`
	TechStack               []string  `json:"tech_stack"`
	Tags                    []string  `json:"tags"`
	EstimatedDuration       string    `json:"estimated_duration"`
	RoadmapJSON             string    `json:"roadmap_json,omitempty"`
	LookingForCollaborators bool      `json:"looking_for_collaborators"`
	MaxTeamSize             int       `json:"max_team_size"`
	CurrentMembers          int       `json:"current_members"`
	OwnerName               string    `json:"owner_name"`
	OwnerEmail              string    `json:"owner_email"`
	CreatedAt               time.Time `json:"created_at"`
}

// CommunityProjectList is one page of community projects.
type CommunityProjectList struct {
	Projects []CommunityProject `json:"projects"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PerPage  int                `json:"per_page"`
}

// ProjectMember is one person on a project team.
type ProjectMember struct {
	UUID      string    `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	Role      string    `json:"role"` // owner or collaborator
	JoinedAt  time.Time `json:"joined_at"`
}

// MembershipResult reports a successful join or leave.
type MembershipResult struct {
	Message        string `json:"message"`
	CurrentMembers int    `json:"current_members"`
}

// CommunityService implements publishing and the join/leave state machine.
type CommunityService struct {
	db       *gorm.DB
	progress *ProgressService
}

func NewCommunityService(db *gorm.DB, progress *ProgressService) *CommunityService {
	return &CommunityService{db: db, progress: progress}
}

func (s *CommunityService) Publish(ownerID uint, req *PublishRequest) (*CommunityProject, error) {
	looking := true
	if req.LookingForCollaborators != nil {
		looking = *req.LookingForCollaborators
	}
	p := &models.Project{
		Title:                   strings.TrimSpace(req.Title),
		Description:             req.Description,
		DifficultyLevel:         req.DifficultyLevel,
		TechStack:               models.StringList(req.TechStack),
		Tags:                    models.StringList(req.Tags),
		EstimatedDuration:       req.EstimatedDuration,
		RoadmapJSON:             req.RoadmapJSON,
		IsPublished:             true,
		LookingForCollaborators: looking,
		MaxTeamSize:             req.MaxTeamSize,
		OwnerID:                 ownerID,
	}
	if err := s.db.Create(p).Error; err != nil {
		return nil, err
	}
	if err := s.db.Preload("Owner").Preload("Collaborators").First(p, p.ID).Error; err != nil {
		return nil, err
	}
	logger.Info().Uint("owner_id", ownerID).Str("project", p.UUID).Msg("[Community] project published")
	return toCommunityProject(p), nil
}

// List pages through published projects, newest first. Total counts the
// filtered set.
func (s *CommunityService) List(f *CommunityFilter) (*CommunityProjectList, error) {
	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultCommunityPerPage
	}
	if perPage > MaxCommunityPerPage {
		perPage = MaxCommunityPerPage
	}

	query := s.db.Model(&models.Project{}).Where("is_published = ?", true)
	if d := strings.TrimSpace(f.Difficulty); d != "" {
		query = query.Where("LOWER(difficulty_level) LIKE ? ESCAPE '!'", likePattern(d))
	}
	if t := strings.TrimSpace(f.Tech); t != "" {
		// tech_stack is a JSON array stored as text
		query = query.Where("LOWER(tech_stack) LIKE ? ESCAPE '!'", likePattern(t))
	}
	if f.LookingForCollaborators != nil {
		query = query.Where("looking_for_collaborators = ?", *f.LookingForCollaborators)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := likePattern(q)
		query = query.Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var projects []models.Project
	err := query.Preload("Owner").Preload("Collaborators").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	out := make([]CommunityProject, 0, len(projects))
	for i := range projects {
		out = append(out, *toCommunityProject(&projects[i]))
	}
	return &CommunityProjectList{Projects: out, Total: total, Page: page, PerPage: perPage}, nil
}

// Get returns a published project.
func (s *CommunityService) Get(uuid string) (*CommunityProject, error) {
	var p models.Project
	err := s.db.Preload("Owner").Preload("Collaborators").
		Where("uuid = ? AND is_published = ?", uuid, true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return toCommunityProject(&p), nil
}

// Members lists the owner followed by collaborators in join order.
func (s *CommunityService) Members(uuid string) ([]ProjectMember, error) {
	var p models.Project
	err := s.db.Preload("Owner").
		Preload("Collaborators", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC, id ASC") }).
		Preload("Collaborators.User").
		Where("uuid = ?", uuid).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	members := make([]ProjectMember, 0, p.CurrentMembers())
	if p.Owner != nil {
		members = append(members, ProjectMember{
			UUID: p.Owner.UUID, Name: displayName(p.Owner), AvatarURL: p.Owner.AvatarURL,
			Role: "owner", JoinedAt: p.CreatedAt,
		})
	}
	for _, c := range p.Collaborators {
		m := ProjectMember{Role: "collaborator", JoinedAt: c.JoinedAt}
		if c.User != nil {
			m.UUID, m.Name, m.AvatarURL = c.User.UUID, displayName(c.User), c.User.AvatarURL
		}
		members = append(members, m)
	}
	return members, nil
}

// Join adds userID as a collaborator. Checks run in a fixed order: the
// project exists, is looking for collaborators, has room, the caller is not
// the owner, and is not already a member.
func (s *CommunityService) Join(userID uint, uuid string) (*MembershipResult, error) {
	var result *MembershipResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := loadProjectForUpdate(tx, uuid)
		if err != nil {
			return err
		}
		if !p.LookingForCollaborators {
			return ErrNotLookingForCollaborators
		}
		if p.IsFull() {
			return ErrTeamFull
		}
		if p.OwnerID == userID {
			return ErrOwnerCannotJoin
		}
		if p.HasCollaborator(userID) {
			return ErrAlreadyMember
		}

		if err := tx.Create(&models.ProjectCollaborator{ProjectID: p.ID, UserID: userID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return err
		}
		result = &MembershipResult{
			Message:        fmt.Sprintf("Successfully joined project: %s", p.Title),
			CurrentMembers: p.CurrentMembers() + 1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CommunityMembership.WithLabelValues("join").Inc()
	if s.progress != nil {
		if _, err := s.progress.RecordActivity(userID, ActivityJoinCommunity); err != nil {
			logger.Warn().Err(err).Uint("user_id", userID).Msg("[Community] failed to record join activity")
		}
	}
	return result, nil
}

// Leave removes userID from the team. The owner cannot leave.
func (s *CommunityService) Leave(userID uint, uuid string) (*MembershipResult, error) {
	var result *MembershipResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := loadProjectForUpdate(tx, uuid)
		if err != nil {
			return err
		}
		if p.OwnerID == userID {
			return ErrOwnerCannotLeave
		}
		if !p.HasCollaborator(userID) {
			return ErrNotMember
		}
		if err := tx.Where("project_id = ? AND user_id = ?", p.ID, userID).
			Delete(&models.ProjectCollaborator{}).Error; err != nil {
			return err
		}
		result = &MembershipResult{
			Message:        fmt.Sprintf("Successfully left project: %s", p.Title),
			CurrentMembers: p.CurrentMembers() - 1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.CommunityMembership.WithLabelValues("leave").Inc()
	return result, nil
}

// Delete removes an owned project together with its collaborator rows.
func (s *CommunityService) Delete(userID uint, uuid string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		p, err := loadProjectForUpdate(tx, uuid)
		if err != nil {
			return err
		}
		if p.OwnerID != userID {
			return ErrNotOwner
		}
		if err := tx.Where("project_id = ?", p.ID).Delete(&models.ProjectCollaborator{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, p.ID).Error
	})
}

// UpdateSettings changes collaboration settings. The team size can never
// drop below the current member count.
func (s *CommunityService) UpdateSettings(userID uint, uuid string, req *ProjectSettingsRequest) (*CommunityProject, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := loadProjectForUpdate(tx, uuid)
		if err != nil {
			return err
		}
		if p.OwnerID != userID {
			return ErrNotOwner
		}
		updates := map[string]interface{}{}
		if req.LookingForCollaborators != nil {
			updates["looking_for_collaborators"] = *req.LookingForCollaborators
		}
		if req.MaxTeamSize != nil {
			if *req.MaxTeamSize < p.CurrentMembers() {
				return ErrTeamSizeTooSmall
			}
			updates["max_team_size"] = *req.MaxTeamSize
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Project{}).Where("id = ?", p.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	var p models.Project
	if err := s.db.Preload("Owner").Preload("Collaborators").Where("uuid = ?", uuid).First(&p).Error; err != nil {
		return nil, err
	}
	return toCommunityProject(&p), nil
}

// Owned lists the projects userID published and the ones they joined.
func (s *CommunityService) Owned(userID uint) (owned, joined []CommunityProject, err error) {
	var mine []models.Project
	if err = s.db.Preload("Owner").Preload("Collaborators").
		Where("owner_id = ?", userID).Order("created_at DESC, id DESC").Find(&mine).Error; err != nil {
		return nil, nil, err
	}

	var theirs []models.Project
	if err = s.db.Preload("Owner").Preload("Collaborators").
		Where("id IN (?)", s.db.Model(&models.ProjectCollaborator{}).Select("project_id").Where("user_id = ?", userID)).
		Order("created_at DESC, id DESC").Find(&theirs).Error; err != nil {
		return nil, nil, err
	}

	owned = make([]CommunityProject, 0, len(mine))
	for i := range mine {
		owned = append(owned, *toCommunityProject(&mine[i]))
	}
	joined = make([]CommunityProject, 0, len(theirs))
	for i := range theirs {
		joined = append(joined, *toCommunityProject(&theirs[i]))
	}
	return owned, joined, nil
}

func loadProjectForUpdate(tx *gorm.DB, uuid string) (*models.Project, error) {
	var p models.Project
	err := forUpdate(tx).Where("uuid = ?", uuid).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Where("project_id = ?", p.ID).Find(&p.Collaborators).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func toCommunityProject(p *models.Project) *CommunityProject {
	out := &CommunityProject{
		ID:                      p.ID,
		UUID:                    p.UUID,
		Title:                   p.Title,
		Description:             p.Description,
		DifficultyLevel:         p.DifficultyLevel,
		TechStack:               nonNil(p.TechStack),
		Tags:                    nonNil(p.Tags),
		EstimatedDuration:       p.EstimatedDuration,
		RoadmapJSON:             p.RoadmapJSON,
		LookingForCollaborators: p.LookingForCollaborators,
		MaxTeamSize:             p.MaxTeamSize,
		CurrentMembers:          p.CurrentMembers(),
		OwnerName:               "Unknown",
		CreatedAt:               p.CreatedAt,
	}
	if p.Owner != nil {
		out.OwnerName = displayName(p.Owner)
		out.OwnerEmail = p.Owner.Email
	}
	return out
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// likeEscaper escapes LIKE wildcards for use with ESCAPE '!'. A backslash
// escape would need different quoting on mysql.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern matches s as a literal, case-insensitive substring.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func nonNil(l models.StringList) []string {
	if l == nil {
		return []string{}
	}
	return []string(l)
}
