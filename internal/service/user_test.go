package service_test

import (
	"strings"
	"testing"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	u, err := service.RegisterUser(db, service.RegisterUserInput{Name: "Sam", Email: "Sam@Example.com", Password: "Str0ng!pass"})
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	if !u.HasCredentials() {
		t.Fatalf("expected registered user to carry credentials")
	}

	got, err := service.Login(db, "sam@example.com", "Str0ng!pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID() != u.ID() {
		t.Fatalf("expected login to return %s, got %s", u.ID(), got.ID())
	}

	if _, err := service.Login(db, "sam@example.com", "wrong-Pass1!"); domain.CodeOf(err) != domain.CodeAuth {
		t.Fatalf("expected AUTH for wrong password, got %v", err)
	}
	if _, err := service.Login(db, "nobody@example.com", "Str0ng!pass"); domain.CodeOf(err) != domain.CodeAuth {
		t.Fatalf("expected AUTH for unknown email, got %v", err)
	}

	_, err = service.RegisterUser(db, service.RegisterUserInput{Name: "Other", Email: "sam@example.com", Password: "Str0ng!pass"})
	if domain.CodeOf(err) != domain.CodeAlreadyExists {
		t.Fatalf("expected ALREADY_EXISTS for duplicate email, got %v", err)
	}
}

func TestRegisterAcceptsLongPassword(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	password := "Aa1!" + strings.Repeat("x", 96)
	u, err := service.RegisterUser(db, service.RegisterUserInput{Name: "Sam", Email: "sam@example.com", Password: password})
	if err != nil {
		t.Fatalf("register with a 100 character password: %v", err)
	}
	got, err := service.Login(db, "sam@example.com", password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID() != u.ID() {
		t.Fatalf("expected login to return %s, got %s", u.ID(), got.ID())
	}
	// Same first 72 bytes, different tail.
	other := password[:90] + strings.Repeat("y", 10)
	if _, err := service.Login(db, "sam@example.com", other); domain.CodeOf(err) != domain.CodeAuth {
		t.Fatalf("expected AUTH for a password differing after byte 72, got %v", err)
	}

	_, err = service.RegisterUser(db, service.RegisterUserInput{Name: "Max", Email: "max@example.com", Password: "Aa1!" + strings.Repeat("x", 125)})
	if !domain.IsValidation(err) {
		t.Fatalf("expected VALIDATION above the policy maximum, got %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	_, err := service.RegisterUser(db, service.RegisterUserInput{Name: "Sam", Email: "sam@example.com", Password: "short"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	users, err := service.ListUsers(db)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no user to be stored, got %d", len(users))
	}
}

func TestUserUpdateAndDeleteCascades(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	u := newTestUser(t, db, "Sam")
	oats := newTestIngredient(t, db, "Oats", 389, 16.9)
	meal := newTestMeal(t, db, u.ID(), "Breakfast", grams(oats.ID(), 80))

	name := "Samantha"
	updated, err := service.UpdateUser(db, u.ID(), domain.UserPatch{Name: &name})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Name() != "Samantha" {
		t.Fatalf("expected renamed user, got %q", updated.Name())
	}

	if err := service.DeleteUser(db, u.ID()); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := service.GetUser(db, u.ID()); !domain.IsNotFound(err) {
		t.Fatalf("expected deleted user to be gone, got %v", err)
	}
	if _, err := service.GetMeal(db, u.ID(), meal.ID()); !domain.IsNotFound(err) {
		t.Fatalf("expected meal to be deleted with its owner, got %v", err)
	}
	if err := service.DeleteIngredient(db, oats.ID()); err != nil {
		t.Fatalf("expected ingredient to be free after owner deletion: %v", err)
	}
}
