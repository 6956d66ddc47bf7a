package promptprofile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KILLERTIAN/skillchaseBot/llm"
)

func TestDefaultSeedAlternatesRoles(t *testing.T) {
	seed := DefaultSeed()
	if len(seed.Turns) != 12 {
		t.Fatalf("turn count mismatch: got %d want 12", len(seed.Turns))
	}
	for i, turn := range seed.Turns {
		want := llm.RoleUser
		if i%2 == 1 {
			want = llm.RoleModel
		}
		if turn.Role != want {
			t.Fatalf("turn %d role mismatch: got %q want %q", i, turn.Role, want)
		}
	}
	if !strings.Contains(seed.Turns[3].Content, "Hu Tao") {
		t.Fatalf("expected persona name in seed, got %q", seed.Turns[3].Content)
	}
}

func TestSeedHistoryIsACopy(t *testing.T) {
	seed := DefaultSeed()
	history := seed.History()
	history[0].Content = "mutated"
	if seed.Turns[0].Content == "mutated" {
		t.Fatalf("seed turns should not share backing array with history")
	}
}

func TestLoadSeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	raw := "turns:\n  - role: User\n    content: ping\n  - role: model\n    content: pong\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	seed, err := LoadSeed(path, nil)
	if err != nil {
		t.Fatalf("LoadSeed() error = %v", err)
	}
	if len(seed.Turns) != 2 || seed.Turns[0].Role != llm.RoleUser || seed.Turns[1].Content != "pong" {
		t.Fatalf("seed mismatch: got %+v", seed.Turns)
	}
}

func TestLoadSeedEmptyPathUsesDefault(t *testing.T) {
	seed, err := LoadSeed("  ", nil)
	if err != nil {
		t.Fatalf("LoadSeed() error = %v", err)
	}
	if len(seed.Turns) != len(DefaultSeed().Turns) {
		t.Fatalf("expected embedded seed, got %d turns", len(seed.Turns))
	}
}

func TestParseSeedRejectsInvalidTurns(t *testing.T) {
	cases := map[string]string{
		"bad role":      "turns:\n  - role: system\n    content: x\n",
		"empty content": "turns:\n  - role: user\n    content: \"  \"\n",
		"unknown field": "turns:\n  - role: user\n    content: x\n    extra: y\n",
	}
	for name, raw := range cases {
		if _, err := ParseSeed([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSeedEncodeRoundTrips(t *testing.T) {
	seed := DefaultSeed()
	raw, err := seed.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	again, err := ParseSeed(raw)
	if err != nil {
		t.Fatalf("ParseSeed() error = %v", err)
	}
	if len(again.Turns) != len(seed.Turns) || again.Turns[11].Content != seed.Turns[11].Content {
		t.Fatalf("encoded seed does not parse back to the same turns")
	}
}

func TestLoadSystemInstruction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "systemInstructions.txt")
	if err := os.WriteFile(path, []byte("You are Hu Tao.\n"), 0o644); err != nil {
		t.Fatalf("write instruction: %v", err)
	}
	got, err := LoadSystemInstruction(path, true, nil)
	if err != nil {
		t.Fatalf("LoadSystemInstruction() error = %v", err)
	}
	if got != "You are Hu Tao.\n" {
		t.Fatalf("instruction mismatch: got %q", got)
	}

	missing := filepath.Join(dir, "missing.txt")
	got, err = LoadSystemInstruction(missing, false, nil)
	if err != nil || got != "" {
		t.Fatalf("optional missing file: got (%q, %v) want empty, nil", got, err)
	}
	if _, err := LoadSystemInstruction(missing, true, nil); err == nil {
		t.Fatalf("required missing file: expected error")
	}
}
