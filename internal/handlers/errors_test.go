package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sanapath/sanapath/internal/services"
	"github.com/sanapath/sanapath/pkg/response"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"not found", services.ErrProjectNotFound, http.StatusNotFound, response.CodeNotFound, "Project not found"},
		{"team full", services.ErrTeamFull, http.StatusBadRequest, response.CodeBadRequest, "Project team is full"},
		{"owner leave", services.ErrOwnerCannotLeave, http.StatusBadRequest, response.CodeBadRequest, "Owner cannot leave the project, delete it instead"},
		{"not owner", services.ErrNotOwner, http.StatusForbidden, response.CodeForbidden, "Only the project owner can do this"},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, response.CodeAuth, "Incorrect email or password"},
		{"email taken", services.ErrEmailTaken, http.StatusConflict, response.CodeConflict, "Email is already registered"},
		{"demo disabled", services.ErrDemoDisabled, http.StatusForbidden, response.CodeForbidden, "Demo login is disabled"},
		{"wrapped settings", fmt.Errorf("%w: theme must be one of dark, light, system", services.ErrInvalidSettings),
			http.StatusUnprocessableEntity, response.CodeValidation, "invalid settings: theme must be one of dark, light, system"},
		{"app error passes through", response.NewConflict("taken"), http.StatusConflict, response.CodeConflict, "taken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toAppError(tt.err)
			if got == nil {
				t.Fatalf("toAppError(%v) = nil", tt.err)
			}
			if got.HTTPStatus != tt.status || got.Code != tt.code || got.Message != tt.msg {
				t.Errorf("toAppError(%v) = %+v, expected %d %s %q", tt.err, got, tt.status, tt.code, tt.msg)
			}
		})
	}
}

func TestToAppError_Unknown(t *testing.T) {
	if got := toAppError(errors.New("disk full")); got != nil {
		t.Errorf("unknown errors must not be mapped, got %+v", got)
	}
}
