package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/hockey-madness/events"
	"github.com/Dosada05/hockey-madness/models"
)

func newAdminFixture() (AdminUserService, *stubUserRepo, *recordingPublisher) {
	users := newStubUserRepo()
	teams := newStubTeamRepo(models.Team{ID: teamLokeren, Name: "HC Lokeren"})
	pub := &recordingPublisher{}
	return NewAdminUserService(users, teams, pub, discardLogger()), users, pub
}

func TestAdminUserService_CreateUser(t *testing.T) {
	svc, users, _ := newAdminFixture()
	ctx := context.Background()
	team := teamLokeren

	u, err := svc.CreateUser(ctx, CreateUserInput{Email: "team@example.com", Password: "secret123", Role: models.RoleTeam, AssignedTeamID: &team})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.PasswordHash != "" {
		t.Error("password hash leaked")
	}
	stored, _ := users.GetByID(ctx, u.ID)
	if stored.AssignedTeamID == nil || *stored.AssignedTeamID != teamLokeren {
		t.Errorf("assigned team = %v", stored.AssignedTeamID)
	}

	// A non-team role never keeps a team.
	admin, err := svc.CreateUser(ctx, CreateUserInput{Email: "admin@example.com", Password: "secret123", Role: models.RoleAdmin, AssignedTeamID: &team})
	if err != nil {
		t.Fatalf("CreateUser admin: %v", err)
	}
	if admin.AssignedTeamID != nil {
		t.Errorf("admin assigned team = %v", *admin.AssignedTeamID)
	}

	// Team accounts may exist without a team.
	if _, err := svc.CreateUser(ctx, CreateUserInput{Email: "spare@example.com", Password: "secret123", Role: models.RoleTeam}); err != nil {
		t.Errorf("team without assignment: %v", err)
	}
}

func TestAdminUserService_CreateUserErrors(t *testing.T) {
	svc, _, _ := newAdminFixture()
	ctx := context.Background()
	missing := "10000000-0000-0000-0000-000000000099"

	tests := []struct {
		name  string
		input CreateUserInput
		want  error
	}{
		{"bad role", CreateUserInput{Email: "a@example.com", Password: "secret123", Role: "owner"}, ErrValidationFailed},
		{"short password", CreateUserInput{Email: "a@example.com", Password: "123", Role: models.RoleUser}, ErrValidationFailed},
		{"unknown team", CreateUserInput{Email: "a@example.com", Password: "secret123", Role: models.RoleTeam, AssignedTeamID: &missing}, ErrTeamNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateUser(ctx, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	svc.CreateUser(ctx, CreateUserInput{Email: "dup@example.com", Password: "secret123", Role: models.RoleUser})
	if _, err := svc.CreateUser(ctx, CreateUserInput{Email: "dup@example.com", Password: "secret123", Role: models.RoleUser}); !errors.Is(err, ErrUserEmailConflict) {
		t.Errorf("duplicate email: err = %v", err)
	}
}

func TestAdminUserService_UpdateAccessPublishes(t *testing.T) {
	svc, users, pub := newAdminFixture()
	ctx := context.Background()
	u := users.add(t, "fan@example.com", "secret123", models.RoleUser)
	team := teamLokeren

	got, err := svc.UpdateAccess(ctx, u.ID, UpdateAccessInput{Role: models.RoleTeam, AssignedTeamID: &team})
	if err != nil {
		t.Fatalf("UpdateAccess: %v", err)
	}
	if got.Role != models.RoleTeam || *got.AssignedTeamID != teamLokeren {
		t.Errorf("user = %+v", got)
	}

	topic, ev := pub.last()
	e, ok := ev.(events.AuthEvent)
	if topic != events.TopicAuthState || !ok || e.Type != events.AuthUserUpdated || e.UserID != u.ID {
		t.Errorf("published %q %#v", topic, ev)
	}

	if _, err := svc.UpdateAccess(ctx, "missing", UpdateAccessInput{Role: models.RoleUser}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user: err = %v", err)
	}
}

func TestAdminUserService_DeleteUserSignsOut(t *testing.T) {
	svc, users, pub := newAdminFixture()
	ctx := context.Background()
	u := users.add(t, "fan@example.com", "secret123", models.RoleUser)

	if err := svc.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	_, ev := pub.last()
	if e := ev.(events.AuthEvent); e.Type != events.AuthSignedOut || e.UserID != u.ID || e.TokenID != "" {
		t.Errorf("event = %+v", e)
	}
	if err := svc.DeleteUser(ctx, u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
}

func TestAdminUserService_ListUsersDefaults(t *testing.T) {
	svc, users, _ := newAdminFixture()
	users.add(t, "a@example.com", "secret123", models.RoleUser)
	users.add(t, "b@example.com", "secret123", models.RoleAdmin)

	resp, err := svc.ListUsers(context.Background(), models.UserFilter{Limit: 500})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if resp.Limit != 20 || resp.Page != 1 || resp.TotalCount != 2 {
		t.Errorf("resp = %+v", resp)
	}
	for _, u := range resp.Users {
		if u.PasswordHash != "" {
			t.Errorf("hash leaked for %s", u.Email)
		}
	}

	bad := models.Role("owner")
	if _, err := svc.ListUsers(context.Background(), models.UserFilter{Role: &bad}); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("bad role: err = %v", err)
	}
}
