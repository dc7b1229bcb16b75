package password

import (
	"strings"
	"testing"
)

func testConfig() Config {
	// Small params so the suite stays fast.
	return Config{
		Params: Argon2idParams{
			MemoryKiB:   8 * 1024,
			Iterations:  1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      8,
			MaxLength:      256,
			RejectVeryWeak: true,
		},
	}
}

func TestHashAndVerify_RoundTrip(t *testing.T) {
	c := testConfig()

	hash, err := c.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash prefix: %s", hash)
	}

	ok, err := c.Verify(hash, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if !ok {
		t.Fatal("expected password to verify")
	}

	ok, err = c.Verify(hash, "wrong password entirely")
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestHash_UniqueSalts(t *testing.T) {
	c := testConfig()

	h1, err := c.Hash("some long passphrase")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := c.Hash("some long passphrase")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password should differ (random salt)")
	}
}

func TestHash_PolicyRejections(t *testing.T) {
	c := testConfig()

	cases := []struct {
		name     string
		password string
	}{
		{"too short", "short"},
		{"too long", strings.Repeat("a", 300)},
		{"all same char", "aaaaaaaaaa"},
		{"all digits short", "12345678"},
		{"common password", "password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Hash(tc.password); err == nil {
				t.Fatalf("expected policy rejection for %q", tc.password)
			}
		})
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	c := testConfig()

	cases := []string{
		"",
		"not a hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	}

	for _, enc := range cases {
		if _, err := c.Verify(enc, "whatever passphrase"); err != ErrInvalidHash {
			t.Errorf("Verify(%q): want ErrInvalidHash, got %v", enc, err)
		}
	}
}

func TestVerify_RejectsOversizedParams(t *testing.T) {
	big := testConfig()
	big.Params.MemoryKiB = 64 * 1024

	hash, err := big.Hash("some long passphrase")
	if err != nil {
		t.Fatal(err)
	}

	small := testConfig() // max 8 MiB, hash was made with 64 MiB
	if _, err := small.Verify(hash, "some long passphrase"); err != ErrInvalidHash {
		t.Fatalf("want ErrInvalidHash for oversized params, got %v", err)
	}
}

func TestVerify_OlderSmallerParamsStillWork(t *testing.T) {
	old := testConfig()
	old.Params.MemoryKiB = 4 * 1024

	hash, err := old.Hash("some long passphrase")
	if err != nil {
		t.Fatal(err)
	}

	current := testConfig()
	ok, err := current.Verify(hash, "some long passphrase")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("hash with smaller historical params should still verify")
	}
}
