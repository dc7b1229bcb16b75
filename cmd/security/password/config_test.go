package password

import "testing"

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	if c.Params.MemoryKiB != 64*1024 {
		t.Errorf("MemoryKiB = %d, want %d", c.Params.MemoryKiB, 64*1024)
	}
	if c.Params.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", c.Params.Iterations)
	}
	if c.Params.Parallelism < 1 || c.Params.Parallelism > 4 {
		t.Errorf("Parallelism = %d, want within [1,4]", c.Params.Parallelism)
	}
	if c.Params.SaltLength != 16 {
		t.Errorf("SaltLength = %d, want 16", c.Params.SaltLength)
	}
	if c.Params.KeyLength != 32 {
		t.Errorf("KeyLength = %d, want 32", c.Params.KeyLength)
	}
	if c.Policy.MinLength != 8 {
		t.Errorf("MinLength = %d, want 8", c.Policy.MinLength)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FRIENDLINES_PASSWORD_MIN_LEN", "12")
	t.Setenv("FRIENDLINES_ARGON2_MEMORY_KIB", "32768")
	t.Setenv("FRIENDLINES_ARGON2_ITERATIONS", "2")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}

	if c.Policy.MinLength != 12 {
		t.Errorf("MinLength = %d, want 12", c.Policy.MinLength)
	}
	if c.Params.MemoryKiB != 32768 {
		t.Errorf("MemoryKiB = %d, want 32768", c.Params.MemoryKiB)
	}
	if c.Params.Iterations != 2 {
		t.Errorf("Iterations = %d, want 2", c.Params.Iterations)
	}
}

func TestFromEnv_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric min len", "FRIENDLINES_PASSWORD_MIN_LEN", "not a number"},
		{"negative memory", "FRIENDLINES_ARGON2_MEMORY_KIB", "-5"},
		{"memory too small", "FRIENDLINES_ARGON2_MEMORY_KIB", "1024"},
		{"iterations too large", "FRIENDLINES_ARGON2_ITERATIONS", "100"},
		{"bad boolean", "FRIENDLINES_PASSWORD_REJECT_VERY_WEAK", "maybe"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestFromEnv_MinGreaterThanMax(t *testing.T) {
	t.Setenv("FRIENDLINES_PASSWORD_MIN_LEN", "100")
	t.Setenv("FRIENDLINES_PASSWORD_MAX_LEN", "10")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error when min_len > max_len")
	}
}
