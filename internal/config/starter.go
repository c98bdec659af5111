package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const starterHeader = `# todo-tracker configuration.
# Values here are overridden by TODOS_* environment variables and flags,
# e.g. TODOS_SCAN_PRECISE=false or --no-precise.

`

// ErrExists is returned by WriteStarter when the target file already exists.
var ErrExists = errors.New("config file already exists")

// WriteStarter writes a commented default config to path. It never
// overwrites an existing file.
func WriteStarter(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(starterHeader); err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(Default()); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
