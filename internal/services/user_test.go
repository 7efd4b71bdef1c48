package services

import (
	"errors"
	"testing"

	"github.com/sanapath/sanapath/internal/models"
	"github.com/sanapath/sanapath/internal/testutil"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUser_Profile(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "profile@example.com")
	svc := NewUserService(db, NewProgressService(db))

	p, err := svc.Profile(user.ID)
	require.NoError(t, err)
	require.Equal(t, "profile@example.com", p.Email)
	require.Equal(t, 1, p.Stats.Level)

	_, err = svc.Profile(user.ID + 100)
	require.True(t, errors.Is(err, ErrUserNotFound))
}

func TestUser_UpdateProfile(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "edit@example.com")
	svc := NewUserService(db, NewProgressService(db))

	langs := []string{"Go", "Python"}
	p, err := svc.UpdateProfile(user.ID, &UpdateProfileRequest{
		Name:                 strPtr("  Arman  "),
		SkillLevel:           strPtr("ADVANCED"),
		ProgrammingLanguages: &langs,
	})
	require.NoError(t, err)
	require.Equal(t, "Arman", p.Name)
	require.Equal(t, "advanced", p.SkillLevel)
	require.Equal(t, models.StringList{"Go", "Python"}, p.ProgrammingLanguages)

	// unchanged values and empty requests are fine
	p, err = svc.UpdateProfile(user.ID, &UpdateProfileRequest{Name: strPtr("Arman")})
	require.NoError(t, err)
	require.Equal(t, "Arman", p.Name)
	_, err = svc.UpdateProfile(user.ID, &UpdateProfileRequest{})
	require.NoError(t, err)
}

func TestUser_Settings(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "settings@example.com")
	svc := NewUserService(db, nil)

	s, err := svc.Settings(user.ID)
	require.NoError(t, err)
	require.Equal(t, "dark", s.Theme)
	require.True(t, s.EmailNotifications)

	in := models.DefaultUserSettings(user.ID)
	in.Theme = "light"
	in.Language = "kk"
	in.EmailNotifications = false
	saved, err := svc.SaveSettings(user.ID, &in)
	require.NoError(t, err)
	require.Equal(t, "light", saved.Theme)
	require.False(t, saved.EmailNotifications)

	in.Theme = "system"
	saved, err = svc.SaveSettings(user.ID, &in)
	require.NoError(t, err)
	require.Equal(t, "system", saved.Theme)

	var count int64
	require.NoError(t, db.Model(&models.UserSettings{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	in.Theme = "neon"
	_, err = svc.SaveSettings(user.ID, &in)
	require.True(t, errors.Is(err, ErrInvalidSettings))
	in.Theme, in.Language = "dark", "fr"
	_, err = svc.SaveSettings(user.ID, &in)
	require.True(t, errors.Is(err, ErrInvalidSettings))
}

func TestSystemLog_ListForUser(t *testing.T) {
	db := testutil.NewDB(t)
	InitSystemLogger(db)
	t.Cleanup(func() { InitSystemLogger(nil) })

	user := testutil.CreateUser(t, db, "audit@example.com")
	other := testutil.CreateUser(t, db, "other@example.com")
	LogInfo("Community", "Join", "joined", &user.ID, "127.0.0.1", "ua", map[string]string{"project": "p1"})
	LogWarning("Auth", "Login", "bad password", &user.ID, "127.0.0.1", "ua", nil)
	LogInfo("Community", "Join", "joined", &other.ID, "127.0.0.1", "ua", nil)

	svc := NewSystemLogService(db)
	res, err := svc.ListForUser(user.ID, &SystemLogListRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 2, res.Total)
	require.Equal(t, 20, res.PageSize)

	res, err = svc.ListForUser(user.ID, &SystemLogListRequest{Module: "Community"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	require.JSONEq(t, `{"project":"p1"}`, res.Items[0].Extra)
}
