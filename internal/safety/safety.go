// Package safety decides whether a generated command may run unattended.
// It is a hard boundary: model output cannot bypass it.
package safety

import (
	"strings"

	"github.com/termichan/termichan/internal/config"
)

// RequiresConfirmation reports whether the command needs user approval under
// the given confirmation mode. In "dangerous" mode the command text is
// matched as-is (untrimmed, case-sensitive) against the configured prefixes.
func RequiresConfirmation(mode config.ConfirmationMode, command string, dangerousPrefixes []string) bool {
	switch mode {
	case config.ConfirmAlways:
		return true
	case config.ConfirmNever:
		return false
	case config.ConfirmDangerous:
		_, matched := MatchedPrefix(command, dangerousPrefixes)
		return matched
	}
	// Unknown modes fall back to requiring confirmation.
	return true
}

// MatchedPrefix returns the first configured prefix the command starts with.
// The verdict is order-independent; the returned prefix is only used for
// diagnostics ("blocked because of ...").
func MatchedPrefix(command string, dangerousPrefixes []string) (string, bool) {
	for _, prefix := range dangerousPrefixes {
		if prefix != "" && strings.HasPrefix(command, prefix) {
			return prefix, true
		}
	}
	return "", false
}
