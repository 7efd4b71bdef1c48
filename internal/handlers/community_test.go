package handlers

import (
	"net/http"
	"testing"

	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/internal/testutil"
	"github.com/sanapath/sanapath/pkg/response"
	"github.com/stretchr/testify/require"
)

func (s *testServer) publish(owner *models.User, body map[string]interface{}) services.CommunityProject {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/community/projects", s.tokenFor(owner), body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var p services.CommunityProject
	decode(s.t, w, &p)
	return p
}

func TestCommunity_JoinLeaveFlow(t *testing.T) {
	s := newTestServer(t)
	owner := testutil.CreateUser(t, s.db, "owner@example.com")
	member := testutil.CreateUser(t, s.db, "member@example.com")
	p := s.publish(owner, map[string]interface{}{
		"title":         "Campus Chatbot",
		"description":   "FAQ bot for the university",
		"tech_stack":    []string{"Python", "FastAPI"},
		"max_team_size": 3,
	})
	require.Equal(t, 1, p.CurrentMembers)
	require.True(t, p.LookingForCollaborators)

	memberToken := s.tokenFor(member)
	joinPath := "/api/community/projects/" + p.UUID + "/join"

	w := s.do(http.MethodPost, joinPath, memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var joined services.MembershipResult
	decode(t, w, &joined)
	require.Equal(t, 2, joined.CurrentMembers)
	require.Equal(t, "Successfully joined project: Campus Chatbot", joined.Message)

	resp := requireError(t, s.do(http.MethodPost, joinPath, memberToken, nil), http.StatusBadRequest, response.CodeBadRequest)
	require.Equal(t, "You are already a member of this project", resp.Message)

	resp = requireError(t, s.do(http.MethodPost, joinPath, s.tokenFor(owner), nil), http.StatusBadRequest, response.CodeBadRequest)
	require.Equal(t, "You are the owner of this project", resp.Message)

	w = s.do(http.MethodGet, "/api/community/projects/"+p.UUID+"/members", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members struct {
		Members []services.ProjectMember `json:"members"`
		Total   int                      `json:"total"`
	}
	decode(t, w, &members)
	require.Equal(t, 2, members.Total)
	require.Equal(t, "owner", members.Members[0].Role)

	resp = requireError(t, s.do(http.MethodPost, "/api/community/projects/"+p.UUID+"/leave", s.tokenFor(owner), nil),
		http.StatusBadRequest, response.CodeBadRequest)
	require.Equal(t, "Owner cannot leave the project, delete it instead", resp.Message)

	w = s.do(http.MethodPost, "/api/community/projects/"+p.UUID+"/leave", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var left services.MembershipResult
	decode(t, w, &left)
	require.Equal(t, 1, left.CurrentMembers)

	// joining awards the community achievement once
	var stats models.UserStats
	require.NoError(t, s.db.Where("user_id = ?", member.ID).First(&stats).Error)
	require.True(t, stats.JoinedCommunity)
}

func TestCommunity_JoinRejections(t *testing.T) {
	s := newTestServer(t)
	owner := testutil.CreateUser(t, s.db, "owner@example.com")
	a := testutil.CreateUser(t, s.db, "a@example.com")
	b := testutil.CreateUser(t, s.db, "b@example.com")

	closed := s.publish(owner, map[string]interface{}{
		"title": "Closed", "description": "solo", "looking_for_collaborators": false,
	})
	small := s.publish(owner, map[string]interface{}{
		"title": "Small", "description": "pair", "max_team_size": 2,
	})

	resp := requireError(t, s.do(http.MethodPost, "/api/community/projects/"+closed.UUID+"/join", s.tokenFor(a), nil),
		http.StatusBadRequest, response.CodeBadRequest)
	require.Equal(t, "Project is not looking for collaborators", resp.Message)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/community/projects/"+small.UUID+"/join", s.tokenFor(a), nil).Code)
	resp = requireError(t, s.do(http.MethodPost, "/api/community/projects/"+small.UUID+"/join", s.tokenFor(b), nil),
		http.StatusBadRequest, response.CodeBadRequest)
	require.Equal(t, "Project team is full", resp.Message)

	requireError(t, s.do(http.MethodPost, "/api/community/projects/missing/join", s.tokenFor(a), nil),
		http.StatusNotFound, response.CodeNotFound)
	requireError(t, s.do(http.MethodPost, "/api/community/projects/"+small.UUID+"/join", "", nil),
		http.StatusUnauthorized, response.CodeAuth)
}

func TestCommunity_ListAndOwnerActions(t *testing.T) {
	s := newTestServer(t)
	owner := testutil.CreateUser(t, s.db, "owner@example.com")
	other := testutil.CreateUser(t, s.db, "other@example.com")
	p := s.publish(owner, map[string]interface{}{
		"title": "Vision Lab", "description": "Detect plants", "difficulty_level": "Advanced",
		"tech_stack": []string{"PyTorch"},
	})
	s.publish(owner, map[string]interface{}{"title": "Budget App", "description": "Track spending", "difficulty_level": "Beginner"})

	w := s.do(http.MethodGet, "/api/community/projects?difficulty=adv&per_page=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list services.CommunityProjectList
	decode(t, w, &list)
	require.EqualValues(t, 1, list.Total)
	require.Equal(t, "Vision Lab", list.Projects[0].Title)
	require.Equal(t, 5, list.PerPage)

	requireError(t, s.do(http.MethodGet, "/api/community/projects?per_page=500", "", nil),
		http.StatusUnprocessableEntity, response.CodeValidation)

	requireError(t, s.do(http.MethodPatch, "/api/community/projects/"+p.UUID+"/settings", s.tokenFor(other),
		map[string]interface{}{"max_team_size": 6}), http.StatusForbidden, response.CodeForbidden)

	w = s.do(http.MethodPatch, "/api/community/projects/"+p.UUID+"/settings", s.tokenFor(owner),
		map[string]interface{}{"max_team_size": 6, "looking_for_collaborators": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated services.CommunityProject
	decode(t, w, &updated)
	require.Equal(t, 6, updated.MaxTeamSize)
	require.False(t, updated.LookingForCollaborators)

	requireError(t, s.do(http.MethodDelete, "/api/community/projects/"+p.UUID, s.tokenFor(other), nil),
		http.StatusForbidden, response.CodeForbidden)
	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/community/projects/"+p.UUID, s.tokenFor(owner), nil).Code)
	requireError(t, s.do(http.MethodGet, "/api/community/projects/"+p.UUID, "", nil), http.StatusNotFound, response.CodeNotFound)

	w = s.do(http.MethodGet, "/api/community/my-projects", s.tokenFor(owner), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Owned  []services.CommunityProject `json:"owned"`
		Joined []services.CommunityProject `json:"joined"`
	}
	decode(t, w, &mine)
	require.Len(t, mine.Owned, 1)
	require.Empty(t, mine.Joined)
}

func TestCommunity_LinkedInPost(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/community/linkedin-post", "", map[string]interface{}{
		"project_title": "Campus Chatbot",
		"tech_stack":    []string{"Python", "LangChain"},
		"student_name":  "Aigerim",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Post string `json:"post"`
	}
	decode(t, w, &out)
	require.Contains(t, out.Post, "Campus Chatbot")
	require.Contains(t, out.Post, "#Python")

	requireError(t, s.do(http.MethodPost, "/api/community/linkedin-post", "", map[string]interface{}{}),
		http.StatusUnprocessableEntity, response.CodeValidation)
}
