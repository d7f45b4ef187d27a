// internal/application/usecase/common_usecase.go
package usecase

import "strings"

// maskID shortens identifiers for log lines.
func maskID(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
