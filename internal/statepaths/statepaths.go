package statepaths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultFileStateDir  = "~/.skillchasebot"
	DefaultSessionDBName = "whatsapp.db"
)

func FileStateDir() string {
	return ResolveStateDir(viper.GetString("file_state_dir"))
}

// WhatsAppSessionPath is where the paired device keys are kept. Relative
// names live under the state dir.
func WhatsAppSessionPath() string {
	return ResolveStateFile(viper.GetString("file_state_dir"), viper.GetString("whatsapp.session_db"), DefaultSessionDBName)
}

func ResolveStateDir(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = DefaultFileStateDir
	}
	return filepath.Clean(ExpandHomePath(dir))
}

func ResolveStateFile(stateDir, name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	name = ExpandHomePath(name)
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(ResolveStateDir(stateDir), name)
}

func ExpandHomePath(p string) string {
	p = strings.TrimSpace(p)
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}
