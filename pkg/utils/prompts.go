package utils

import (
	"fmt"
	"os"
	"strings"
)

// LoadPrompt loads prompt instructions from a specific file path
func LoadPrompt(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt %s: %w", filePath, err)
	}

	return strings.TrimSpace(string(content)), nil
}

// LoadPromptWithFallback loads prompt instructions, returning fallback when the path is
// empty or the file cannot be read
func LoadPromptWithFallback(filePath, fallback string) string {
	if filePath == "" {
		return fallback
	}
	if content, err := LoadPrompt(filePath); err == nil && content != "" {
		return content
	}
	return fallback
}
