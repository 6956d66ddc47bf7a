package promptprofile

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const DefaultSystemInstructionPath = "./systemInstructions.txt"

// LoadSystemInstruction reads the system instruction verbatim. A missing file
// is only an error when required is set; otherwise the session runs without
// one.
func LoadSystemInstruction(path string, required bool, log *slog.Logger) (string, error) {
	if log == nil {
		log = slog.Default()
	}
	path = strings.TrimSpace(path)
	if path == "" {
		if required {
			return "", fmt.Errorf("system instruction file is required")
		}
		return "", nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			log.Warn("system_instruction_missing", "path", path)
			return "", nil
		}
		return "", fmt.Errorf("read system instruction: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		log.Warn("system_instruction_empty", "path", path)
		return "", nil
	}
	log.Info("system_instruction_loaded", "path", path, "bytes", len(raw))
	return string(raw), nil
}
