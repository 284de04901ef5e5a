package nodeexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const SafeSystemPath = "PATH=/usr/local/bin:/usr/bin:/bin:/usr/sbin:/sbin"

// Node is only looked up at fixed locations, never through PATH.
var ExecutableCandidates = []string{
	"/usr/local/bin/node",
	"/usr/bin/node",
	"/bin/node",
	"/opt/homebrew/bin/node",
}

var ErrNotFound = errors.New("node executable not found")

func ResolveBinaryPath() (string, error) {
	for _, candidate := range ExecutableCandidates {
		if ExecutableAvailable(candidate) {
			return candidate, nil
		}
	}
	return "", ErrNotFound
}

// SanitizedEnv drops variables that change how node starts.
func SanitizedEnv() []string {
	env := os.Environ()
	filtered := make([]string, 0, len(env)+1)
	for _, entry := range env {
		if strings.HasPrefix(entry, "NODE_OPTIONS=") ||
			strings.HasPrefix(entry, "NODE_PATH=") ||
			strings.HasPrefix(entry, "NODE_EXTRA_CA_CERTS=") ||
			strings.HasPrefix(entry, "PATH=") {
			continue
		}
		filtered = append(filtered, entry)
	}
	return append(filtered, SafeSystemPath)
}

func ExecutableAvailable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}

// CurrentVersion runs node --version and returns the bare version, such as
// 20.11.1.
func CurrentVersion(ctx context.Context) (string, error) {
	path, err := ResolveBinaryPath()
	if err != nil {
		return "", err
	}
	// #nosec G204 -- the binary comes from a fixed list and the arguments are constant.
	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Env = SanitizedEnv()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("resolve node version: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return ParseVersionOutput(string(output))
}

func ParseVersionOutput(output string) (string, error) {
	version := strings.TrimPrefix(strings.TrimSpace(output), "v")
	if version == "" || strings.ContainsAny(version, " \n") {
		return "", fmt.Errorf("unexpected node --version output %q", output)
	}
	return version, nil
}
