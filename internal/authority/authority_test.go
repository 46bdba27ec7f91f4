package authority

import (
	"errors"
	"testing"
)

func TestIsAdmin(t *testing.T) {
	a := NewStatic("treasurer")

	if !a.IsAdmin("treasurer") {
		t.Fatal("treasurer should be admin")
	}
	if a.IsAdmin("IT") {
		t.Fatal("IT should not be admin")
	}
	if got := a.Admin(); got != "treasurer" {
		t.Fatalf("Admin = %s, want treasurer", got)
	}
}

func TestTransfer(t *testing.T) {
	a := NewStatic("treasurer")

	if err := a.Transfer("IT", "IT"); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("Transfer by non-admin error = %v, want ErrNotAdmin", err)
	}
	if err := a.Transfer("treasurer", "cfo"); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !a.IsAdmin("cfo") {
		t.Fatal("cfo should be admin after transfer")
	}
	if a.IsAdmin("treasurer") {
		t.Fatal("treasurer should no longer be admin")
	}
}
