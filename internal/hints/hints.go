// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"runtime"
	"strings"

	"github.com/alnah/go-chatfmt/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// GOOS is the target platform, replaceable in tests.
var GOOS = runtime.GOOS

// ForClipboard returns hints for clipboard write failures.
// Linux needs an external helper; containers usually have no display at all.
func ForClipboard() string {
	var hints []string

	if IsInContainer() {
		hints = append(hints, "no clipboard in containers; redirect output with > file instead")
	}

	if GOOS == "linux" {
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			hints = append(hints, "install wl-clipboard")
		} else {
			hints = append(hints, "install xclip or xsel")
		}
	}

	return formatHints(hints)
}

// ForAPIKey returns a hint for a missing model API key.
func ForAPIKey() string {
	return format("set CHATFMT_API_KEY (the key is never read from config files)")
}

// ForTimeout returns a hint about increasing the model timeout.
func ForTimeout() string {
	return format("for long answers, use --timeout or model.timeout in config")
}

// ForModelUnreachable returns hints for completion endpoint failures.
func ForModelUnreachable(baseURL string) string {
	hint := "check network access to " + baseURL
	if os.Getenv("CHATFMT_BASE_URL") == "" {
		hint += " or set CHATFMT_BASE_URL"
	}
	return format(hint)
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-chatfmt") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForChatNotFound returns a hint for unknown chat identifiers.
func ForChatNotFound() string {
	return format("list chats with: chatfmt history list")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
