package scanner

import (
	"path/filepath"
	"strings"
)

// shouldExclude checks if a relative key matches any exclude pattern.
// Patterns support:
//   - Simple glob patterns on the basename: *.tmp, *.log
//   - Directory patterns: .git/, node_modules/
//   - Path patterns: build/*, **/cache/*
func shouldExclude(key string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	baseName := filepath.Base(key)

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		pattern = filepath.ToSlash(pattern)

		if strings.HasSuffix(pattern, "/") {
			dir := strings.TrimSuffix(pattern, "/")
			if key == dir ||
				strings.HasPrefix(key, dir+"/") ||
				strings.Contains(key, "/"+dir+"/") {
				return true
			}
			continue
		}

		if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
			if matchGlob(baseName, rest) || matchGlob(key, rest) ||
				strings.HasSuffix(key, "/"+rest) || matchAnyComponent(key, rest) {
				return true
			}
			continue
		}

		if strings.Contains(pattern, "/") {
			if matchGlob(key, pattern) || strings.HasSuffix(key, pattern) {
				return true
			}
		} else if matchGlob(baseName, pattern) {
			return true
		}
	}

	return false
}

func matchGlob(name, pattern string) bool {
	matched, _ := filepath.Match(pattern, name)
	return matched
}

func matchAnyComponent(key, pattern string) bool {
	for _, part := range strings.Split(key, "/") {
		if matchGlob(part, pattern) {
			return true
		}
	}
	return false
}
