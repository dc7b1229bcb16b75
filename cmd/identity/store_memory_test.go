package identity

import (
	"context"
	"testing"
	"time"
)

func fastArgon2(t *testing.T) {
	t.Helper()
	t.Setenv("FRIENDLINES_ARGON2_MEMORY_KIB", "8192")
	t.Setenv("FRIENDLINES_ARGON2_ITERATIONS", "1")
}

func mustCreate(t *testing.T, s Store, username, fullName, email string) User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), CreateUserInput{
		Username: username,
		FullName: fullName,
		Email:    email,
		Password: "a strong enough password",
		Now:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	fastArgon2(t)
	s := NewMemoryStore()
	ctx := context.Background()

	u := mustCreate(t, s, "Alice", "Alice Example", "Alice@Example.com")

	if u.ID == "" || len(u.ID) != 26 {
		t.Fatalf("expected 26-char ULID, got %q", u.ID)
	}
	if u.UsernameNorm != "alice" {
		t.Errorf("UsernameNorm = %q, want %q", u.UsernameNorm, "alice")
	}
	if u.EmailNorm != "alice@example.com" {
		t.Errorf("EmailNorm = %q, want %q", u.EmailNorm, "alice@example.com")
	}
	if u.PasswordHash == "" || u.PasswordHash == "a strong enough password" {
		t.Fatal("password must be stored hashed")
	}

	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Username != "Alice" {
		t.Errorf("Username = %q, want Alice", got.Username)
	}

	// Lookup is case-insensitive.
	got, err = s.GetUserByUsername(ctx, "ALICE")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("lookup returned wrong user: %s", got.ID)
	}
}

func TestMemoryStore_CreateUser_Validation(t *testing.T) {
	fastArgon2(t)
	s := NewMemoryStore()
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateUserInput
	}{
		{"missing username", CreateUserInput{FullName: "X Y", Email: "x@y.com", Password: "long enough pw"}},
		{"missing full name", CreateUserInput{Username: "x", Email: "x@y.com", Password: "long enough pw"}},
		{"bad email", CreateUserInput{Username: "x", FullName: "X Y", Email: "nope", Password: "long enough pw"}},
		{"missing password", CreateUserInput{Username: "x", FullName: "X Y", Email: "x@y.com"}},
		{"short password", CreateUserInput{Username: "x", FullName: "X Y", Email: "x@y.com", Password: "short"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateUser(ctx, tc.in)
			if !IsInvalidInput(err) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestMemoryStore_UniqueUsernameAndEmail(t *testing.T) {
	fastArgon2(t)
	s := NewMemoryStore()
	ctx := context.Background()

	mustCreate(t, s, "bob", "Bob One", "bob@example.com")

	_, err := s.CreateUser(ctx, CreateUserInput{
		Username: "BOB", // same after normalization
		FullName: "Bob Two",
		Email:    "other@example.com",
		Password: "a strong enough password",
	})
	if !IsConflict(err) {
		t.Fatalf("duplicate username: want conflict, got %v", err)
	}

	_, err = s.CreateUser(ctx, CreateUserInput{
		Username: "bob2",
		FullName: "Bob Two",
		Email:    "BOB@Example.com", // same after normalization
		Password: "a strong enough password",
	})
	if !IsConflict(err) {
		t.Fatalf("duplicate email: want conflict, got %v", err)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetUserByID(ctx, "01J0000000000000000000000X"); !IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
	if _, err := s.GetUserByUsername(ctx, "ghost"); !IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestMemoryStore_SearchUsers(t *testing.T) {
	fastArgon2(t)
	s := NewMemoryStore()
	ctx := context.Background()

	mustCreate(t, s, "carol", "Carol Smith", "carol@example.com")
	mustCreate(t, s, "caroline", "Caroline Jones", "caroline@example.com")
	mustCreate(t, s, "dave", "Dave Carolson", "dave@example.com")
	mustCreate(t, s, "erin", "Erin Brown", "erin@example.com")

	got, err := s.SearchUsers(ctx, SearchUsersInput{Query: "carol"})
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	// carol + caroline by username, dave by full name.
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}

	// Pagination is stable and ordered by id.
	page1, err := s.SearchUsers(ctx, SearchUsersInput{Query: "carol", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	page2, err := s.SearchUsers(ctx, SearchUsersInput{Query: "carol", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page1) != 2 || len(page2) != 1 {
		t.Fatalf("pagination sizes: %d, %d", len(page1), len(page2))
	}
	if page1[0].ID >= page1[1].ID || page1[1].ID >= page2[0].ID {
		t.Fatal("results not ordered by id across pages")
	}

	if _, err := s.SearchUsers(ctx, SearchUsersInput{Query: "   "}); !IsInvalidInput(err) {
		t.Fatalf("empty query: want ErrInvalidInput, got %v", err)
	}
}

func TestMemoryStore_UpdateProfile(t *testing.T) {
	fastArgon2(t)
	s := NewMemoryStore()
	ctx := context.Background()

	u := mustCreate(t, s, "frank", "Frank Old", "frank@example.com")

	newName := "Frank New"
	got, err := s.UpdateProfile(ctx, UpdateProfileInput{UserID: u.ID, FullName: &newName})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.FullName != "Frank New" {
		t.Errorf("FullName = %q, want %q", got.FullName, "Frank New")
	}

	empty := "   "
	if _, err := s.UpdateProfile(ctx, UpdateProfileInput{UserID: u.ID, FullName: &empty}); !IsInvalidInput(err) {
		t.Fatalf("blank full name: want ErrInvalidInput, got %v", err)
	}

	if _, err := s.UpdateProfile(ctx, UpdateProfileInput{UserID: "missing", FullName: &newName}); !IsNotFound(err) {
		t.Fatalf("unknown user: want not found, got %v", err)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	fastArgon2(t)

	hash, err := HashPassword("a strong enough password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	ok, err := VerifyPassword("a strong enough password", hash)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword: ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword("wrong password here", hash)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("wrong password must not verify")
	}
}
