package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tempoedu/tempo-api/model"
	"github.com/tempoedu/tempo-api/utils/apperr"
)

func TestCreateAccount(t *testing.T) {
	db := openTestDB(t)
	svc := NewAllocationService(db)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "  teacher01  ", "pool-secret-1")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if account.Username != "teacher01" {
		t.Errorf("username not trimmed: %q", account.Username)
	}
	if account.Allocated {
		t.Error("new account should be unallocated")
	}
	if account.PasswordHash == "pool-secret-1" {
		t.Error("password stored in plaintext")
	}

	if _, err := svc.CreateAccount(ctx, "teacher01", "another-secret"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate username: got %v, want ErrConflict", err)
	}

	if _, err := svc.CreateAccount(ctx, "", "pool-secret-1"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty username: got %v, want ErrValidation", err)
	}
	if _, err := svc.CreateAccount(ctx, "teacher02", "short"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("short password: got %v, want ErrValidation", err)
	}
}

func TestAllocateAccount(t *testing.T) {
	db := openTestDB(t)
	svc := NewAllocationService(db)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "teacher01", "pool-secret-1")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	spare, err := svc.CreateAccount(ctx, "teacher02", "pool-secret-2")
	if err != nil {
		t.Fatalf("create spare account: %v", err)
	}

	unallocated, err := svc.Unallocated(ctx)
	if err != nil {
		t.Fatalf("list unallocated: %v", err)
	}
	if len(unallocated) != 2 {
		t.Fatalf("unallocated count = %d, want 2", len(unallocated))
	}

	user := createTestUser(t, db, "Promoted Student", "promoted@test.local", model.RoleStudent)

	if err := svc.Allocate(ctx, account.ID, user.ID); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	// Pool entry and identity must both reflect the binding.
	var gotAccount model.TeacherAccount
	if err := db.First(&gotAccount, account.ID).Error; err != nil {
		t.Fatalf("reload account: %v", err)
	}
	if !gotAccount.Allocated {
		t.Error("account not marked allocated")
	}
	if gotAccount.AllocatedToID == nil || *gotAccount.AllocatedToID != user.ID {
		t.Errorf("account.AllocatedToID = %v, want %d", gotAccount.AllocatedToID, user.ID)
	}
	var gotUser model.User
	if err := db.First(&gotUser, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if gotUser.AllocatedAccountID == nil || *gotUser.AllocatedAccountID != account.ID {
		t.Errorf("user.AllocatedAccountID = %v, want %d", gotUser.AllocatedAccountID, account.ID)
	}
	if gotUser.Role != model.RoleTeacher {
		t.Errorf("user role = %q, want %q", gotUser.Role, model.RoleTeacher)
	}

	unallocated, err = svc.Unallocated(ctx)
	if err != nil {
		t.Fatalf("list unallocated: %v", err)
	}
	if len(unallocated) != 1 || unallocated[0].ID != spare.ID {
		t.Errorf("unallocated listing should contain only the spare account")
	}
}

func TestAllocateAccountOnlyOnce(t *testing.T) {
	db := openTestDB(t)
	svc := NewAllocationService(db)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "teacher01", "pool-secret-1")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	first := createTestUser(t, db, "First Teacher", "first@test.local", model.RoleStudent)
	second := createTestUser(t, db, "Second Teacher", "second@test.local", model.RoleStudent)

	if err := svc.Allocate(ctx, account.ID, first.ID); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := svc.Allocate(ctx, account.ID, second.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second allocate: got %v, want ErrConflict", err)
	}

	// The original binding survives the rejected transfer.
	var gotAccount model.TeacherAccount
	if err := db.First(&gotAccount, account.ID).Error; err != nil {
		t.Fatalf("reload account: %v", err)
	}
	if gotAccount.AllocatedToID == nil || *gotAccount.AllocatedToID != first.ID {
		t.Errorf("account.AllocatedToID = %v, want %d", gotAccount.AllocatedToID, first.ID)
	}
	var gotSecond model.User
	if err := db.First(&gotSecond, second.ID).Error; err != nil {
		t.Fatalf("reload second user: %v", err)
	}
	if gotSecond.AllocatedAccountID != nil {
		t.Error("rejected allocation must not touch the second user")
	}
	if gotSecond.Role != model.RoleStudent {
		t.Errorf("second user role = %q, want %q", gotSecond.Role, model.RoleStudent)
	}
}

func TestAllocateAccountMissingRows(t *testing.T) {
	db := openTestDB(t)
	svc := NewAllocationService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "Somebody", "somebody@test.local", model.RoleStudent)
	if err := svc.Allocate(ctx, 999, user.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing account: got %v, want ErrNotFound", err)
	}

	account, err := svc.CreateAccount(ctx, "teacher01", "pool-secret-1")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := svc.Allocate(ctx, account.ID, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing teacher: got %v, want ErrNotFound", err)
	}
}

func TestVerifyLogin(t *testing.T) {
	db := openTestDB(t)
	svc := NewAllocationService(db)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "teacher01", "pool-secret-1")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	// Unallocated accounts cannot log in even with the right password.
	if _, err := svc.VerifyLogin(ctx, "teacher01", "pool-secret-1"); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("unallocated login: got %v, want ErrUnauthenticated", err)
	}

	user := createTestUser(t, db, "Pool Teacher", "pool@test.local", model.RoleStudent)
	if err := svc.Allocate(ctx, account.ID, user.ID); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	got, err := svc.VerifyLogin(ctx, "  teacher01  ", " pool-secret-1 ")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("login returned user %d, want %d", got.ID, user.ID)
	}
	if got.Role != model.RoleTeacher {
		t.Errorf("login role = %q, want %q", got.Role, model.RoleTeacher)
	}

	if _, err := svc.VerifyLogin(ctx, "teacher01", "wrong-password"); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("wrong password: got %v, want ErrUnauthenticated", err)
	}
	if _, err := svc.VerifyLogin(ctx, "no-such-user", "pool-secret-1"); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("unknown username: got %v, want ErrUnauthenticated", err)
	}
}
