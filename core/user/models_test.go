package user

import "testing"

func TestUser_SetCheckPassword(t *testing.T) {
	var usr User
	if err := usr.SetPassword("s3cret"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	if err := usr.CheckPassword("s3cret"); err != nil {
		t.Errorf("CheckPassword() rejected the right password: %v", err)
	}
	if err := usr.CheckPassword("lol"); err == nil {
		t.Error("CheckPassword() accepted a wrong password")
	}
	if err := usr.CheckPassword(""); err == nil {
		t.Error("CheckPassword() accepted an empty password")
	}
}

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleStudent, true},
		{Role(""), false},
		{Role("teacher"), false},
	}
	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}
