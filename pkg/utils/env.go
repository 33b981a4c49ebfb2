package utils

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv reads the given .env files and returns them merged with the process environment.
// Variables already set in the environment are not overridden by file values; for values
// coming only from files, later files take precedence.
func LoadEnv(files ...string) map[string]string {
	config := make(map[string]string)

	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}

		values, err := godotenv.Read(file)
		if err != nil {
			log.Printf("[UTILS]: Warning, could not load %s: %v", file, err)
			continue
		}

		for key, value := range values {
			config[key] = value
		}
	}

	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if ok && key != "" {
			config[key] = value
		}
	}

	return config
}

// EnvFile returns the .env path to load, honouring ENV_FILE
func EnvFile() string {
	if path := os.Getenv("ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}
