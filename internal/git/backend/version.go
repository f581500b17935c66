package backend

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// Minimum git accepted by the CLI backend. `log -L` with --skip, `blame
// --porcelain` and `ls-tree --full-tree -z` all behave as expected from here on.
var minGitVersion = gitVersion{major: 2, minor: 23}

type gitVersion struct {
	major, minor, patch int
}

func MinGitVersion() string {
	return minGitVersion.String()
}

func (v gitVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

func (v gitVersion) less(other gitVersion) bool {
	if v.major != other.major {
		return v.major < other.major
	}
	if v.minor != other.minor {
		return v.minor < other.minor
	}
	return v.patch < other.patch
}

// parseGitVersionOutput accepts vendor decorated output such as
// "git version 2.39.3 (Apple Git-146)" or "git version 2.39.3.windows.1".
func parseGitVersionOutput(out string) (gitVersion, bool) {
	s := strings.TrimSpace(out)
	if _, rest, ok := strings.Cut(s, "git version"); ok {
		s = strings.TrimSpace(rest)
	}
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return gitVersion{}, false
	}
	s = s[start:]
	if end := strings.IndexFunc(s, func(r rune) bool { return !isDigit(r) && r != '.' }); end >= 0 {
		s = s[:end]
	}
	parts := strings.Split(strings.Trim(s, "."), ".")
	if len(parts) < 2 {
		return gitVersion{}, false
	}
	var nums [3]int
	for i := 0; i < len(parts) && i < len(nums); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			if i < 2 {
				return gitVersion{}, false
			}
			break
		}
		nums[i] = n
	}
	return gitVersion{major: nums[0], minor: nums[1], patch: nums[2]}, true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func validateGitVersionOutput(out string) error {
	got, ok := parseGitVersionOutput(out)
	if !ok {
		return fmt.Errorf("unable to parse git version output: %q", strings.TrimSpace(out))
	}
	if got.less(minGitVersion) {
		return fmt.Errorf("git %s is too old; gitliner requires git >= %s", got, minGitVersion)
	}
	return nil
}

type gitVersionInfo struct {
	out string
	err error
}

var gitVersionInfoCached = sync.OnceValue(func() gitVersionInfo {
	outBytes, err := exec.Command("git", "--version").CombinedOutput()
	out := strings.TrimSpace(string(outBytes))
	if err != nil {
		if out != "" {
			return gitVersionInfo{out: out, err: fmt.Errorf("git --version: %v: %s", err, out)}
		}
		return gitVersionInfo{out: out, err: fmt.Errorf("git --version: %w", err)}
	}
	return gitVersionInfo{out: out}
})

// GitVersion returns the raw `git --version` output.
func GitVersion() (string, error) {
	info := gitVersionInfoCached()
	return info.out, info.err
}

var ensureMinGitVersion = sync.OnceValue(func() error {
	info := gitVersionInfoCached()
	if info.err != nil {
		return info.err
	}
	return validateGitVersionOutput(info.out)
})
