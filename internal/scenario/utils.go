package scenario

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/scrollmotion/internal/system"
)

// DefaultDir is where scaffolded scenarios are written.
var DefaultDir = filepath.Join("internal", "scenarios")

// GenerateScenarioPath creates a timestamped scenario filename in dir
func GenerateScenarioPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("scenario_%s.yaml", timestamp))
}

// FindLatestScenario finds the most recent scenario file in dir
func FindLatestScenario(dir string) (string, error) {
	path, err := system.FindLatest(dir, ".yaml")
	if err != nil {
		return "", fmt.Errorf("no scenario found: %w", err)
	}
	return path, nil
}
