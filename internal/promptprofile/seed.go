package promptprofile

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/KILLERTIAN/skillchaseBot/llm"
	"gopkg.in/yaml.v3"
)

//go:embed seed_default.yaml
var defaultSeedSource []byte

// Seed is the fixed transcript that primes every model session.
type Seed struct {
	Turns []llm.Message `yaml:"turns"`
}

// History returns a copy of the seed turns for a new session.
func (s Seed) History() []llm.Message {
	return llm.CloneMessages(s.Turns)
}

func (s Seed) Validate() error {
	for i, turn := range s.Turns {
		switch turn.Role {
		case llm.RoleUser, llm.RoleModel:
		default:
			return fmt.Errorf("seed turn %d: role must be user|model, got %q", i, turn.Role)
		}
		if strings.TrimSpace(turn.Content) == "" {
			return fmt.Errorf("seed turn %d: content is required", i)
		}
	}
	return nil
}

// Encode renders the seed in the same YAML shape ParseSeed accepts.
func (s Seed) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DefaultSeed() Seed {
	seed, err := ParseSeed(defaultSeedSource)
	if err != nil {
		panic(fmt.Sprintf("embedded seed is invalid: %v", err))
	}
	return seed
}

func ParseSeed(raw []byte) (Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	for i := range seed.Turns {
		seed.Turns[i].Role = strings.ToLower(strings.TrimSpace(seed.Turns[i].Role))
	}
	if err := seed.Validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

// LoadSeed reads the seed from path, or returns the embedded default when
// path is empty.
func LoadSeed(path string, log *slog.Logger) (Seed, error) {
	if log == nil {
		log = slog.Default()
	}
	path = strings.TrimSpace(path)
	if path == "" {
		seed := DefaultSeed()
		log.Debug("seed_loaded", "source", "embedded", "turns", len(seed.Turns))
		return seed, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	seed, err := ParseSeed(raw)
	if err != nil {
		return Seed{}, fmt.Errorf("%s: %w", path, err)
	}
	log.Info("seed_loaded", "source", path, "turns", len(seed.Turns))
	return seed, nil
}
