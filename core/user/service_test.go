package user_test

import (
	"context"
	"sync"
	"testing"

	"github.com/trezcool/matokeo/core/user"
	inmemdb "github.com/trezcool/matokeo/storage/database/inmem"
	testutil "github.com/trezcool/matokeo/tests"
)

func setup(t *testing.T) (*user.Service, user.Repository) {
	t.Helper()
	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	return user.NewService(repo), repo
}

func TestService_Authenticate(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	testutil.CreateUser(t, repo, "admin", "admin123", user.RoleAdmin)

	tests := []struct {
		name    string
		uname   string
		pwd     string
		wantErr error
	}{
		{name: "unknown username", uname: "ghost", pwd: "admin123", wantErr: user.ErrAuthenticationFailed},
		{name: "wrong password", uname: "admin", pwd: "lol", wantErr: user.ErrAuthenticationFailed},
		{name: "empty password", uname: "admin", pwd: "", wantErr: user.ErrAuthenticationFailed},
		{name: "authenticated", uname: "admin", pwd: "admin123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Authenticate(ctx, tt.uname, tt.pwd)
			if err != tt.wantErr {
				t.Fatalf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && usr.LastLogin.IsZero() {
				t.Error("Authenticate() did not record the login time")
			}
		})
	}
}

func TestService_EnsureDefaultAdmin(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	// concurrent bootstrap attempts must yield exactly one account
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.EnsureDefaultAdmin(ctx, "admin", "admin123")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("EnsureDefaultAdmin(): %v", err)
		}
	}

	usr, err := repo.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetUserByUsername(): %v", err)
	}
	if !usr.IsAdmin() {
		t.Errorf("role = %v, want %v", usr.Role, user.RoleAdmin)
	}
	if err := usr.CheckPassword("admin123"); err != nil {
		t.Error("admin does not have the initial password")
	}

	// re-running must not reset a changed password
	if err := svc.SetPassword(ctx, "admin", "s3cret"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	if err := svc.EnsureDefaultAdmin(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("EnsureDefaultAdmin(): %v", err)
	}
	usr, err = repo.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetUserByUsername(): %v", err)
	}
	if err := usr.CheckPassword("s3cret"); err != nil {
		t.Error("bootstrap reset an existing password")
	}
}

func TestService_SetPassword(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "s1001", "s1001", user.RoleStudent)

	if err := svc.SetPassword(ctx, "ghost", "lol"); err != user.ErrNotFound {
		t.Errorf("SetPassword() error = %v, want %v", err, user.ErrNotFound)
	}

	if err := svc.SetPassword(ctx, usr.Username, "hunter22"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	refreshed, err := repo.GetUserByUsername(ctx, usr.Username)
	if err != nil {
		t.Fatalf("GetUserByUsername(): %v", err)
	}
	if err := refreshed.CheckPassword("hunter22"); err != nil {
		t.Error("new password not set")
	}
	if err := refreshed.CheckPassword("s1001"); err == nil {
		t.Error("old password still set")
	}
}
