package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// LoadPrompt loads a prompt fragment from an exact file path, trimming
// surrounding whitespace. Missing and empty paths are errors
func LoadPrompt(filePath string) (string, error) {
	if filePath == "" {
		return "", fmt.Errorf("prompt file path is empty")
	}

	content, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return strings.TrimSpace(string(content)), nil
}
