package domain

import (
	"testing"

	"school-management/backend/internal/role"
)

func TestAccount_Validate(t *testing.T) {
	base := func() *Account {
		return &Account{TenantID: "t1", Email: " Head@School.EDU ", Role: role.Principal, PasswordHash: "h"}
	}
	a := base()
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if a.Email != "head@school.edu" {
		t.Errorf("Email = %q, want normalised", a.Email)
	}

	tests := []struct {
		name   string
		mutate func(*Account)
	}{
		{"no tenant", func(a *Account) { a.TenantID = "" }},
		{"no email", func(a *Account) { a.Email = "" }},
		{"bad role", func(a *Account) { a.Role = "janitor" }},
		{"no hash", func(a *Account) { a.PasswordHash = "" }},
	}
	for _, tt := range tests {
		a := base()
		tt.mutate(a)
		if err := a.Validate(); err == nil {
			t.Errorf("%s: Validate should fail", tt.name)
		}
	}
}
