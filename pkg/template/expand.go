// Package template provides placeholder expansion for snapshot notes.
package template

import (
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"
)

// Expand expands placeholders in the input string.
//
// Supported placeholders:
//   {date}      - Current date in YYYY-MM-DD format
//   {time}      - Current time in HH:MM:SS format
//   {datetime}  - Current date and time in YYYY-MM-DD HH:MM:SS format
//   {iso8601}   - Current time in ISO 8601 format
//   {unix}      - Current Unix timestamp
//   {user}      - Current username
//   {hostname}  - System hostname
//   {arch}      - System architecture (e.g., amd64, arm64)
//   {kernel}    - Running kernel release, when provided via vars
//
// Values in the vars map override built-in placeholders.
func Expand(text string, vars map[string]string) string {
	now := time.Now()

	placeholders := map[string]string{
		"date":     now.Format("2006-01-02"),
		"time":     now.Format("15:04:05"),
		"datetime": now.Format("2006-01-02 15:04:05"),
		"iso8601":  now.Format(time.RFC3339),
		"unix":     fmt.Sprintf("%d", now.Unix()),
	}

	if u, err := user.Current(); err == nil {
		placeholders["user"] = u.Username
	} else {
		placeholders["user"] = "unknown"
	}

	if h, err := os.Hostname(); err == nil {
		// Drop the domain part if present
		placeholders["hostname"] = strings.Split(h, ".")[0]
	} else {
		placeholders["hostname"] = "unknown"
	}

	placeholders["arch"] = runtime.GOARCH

	for k, v := range vars {
		placeholders[k] = v
	}

	result := text
	for key, value := range placeholders {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}

	return result
}

// ExpandNote expands a snapshot note, wiring in the kernel release so
// notes like "pre-upgrade {kernel}" work.
func ExpandNote(note, kernel string) string {
	return Expand(note, map[string]string{"kernel": kernel})
}
