package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadDir loads the standard export files found in dir. File names are
// matched case-insensitively; missing files are simply absent from the result.
func ReadDir(dir string) (Files, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read export dir: %w", err)
	}
	byName := make(map[string]string, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			byName[strings.ToLower(e.Name())] = e.Name()
		}
	}

	files := make(Files)
	for _, kind := range Kinds {
		name, ok := byName[strings.ToLower(FileNames[kind])]
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		files[kind] = string(data)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoFiles)
	}
	return files, nil
}
