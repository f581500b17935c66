package git

import gitbackend "github.com/thiagokokada/gitliner/internal/git/backend"

// GitVersion reports the git executable the CLI backend runs, for `version`.
func GitVersion() (string, error) {
	return gitbackend.GitVersion()
}

func MinGitVersion() string {
	return gitbackend.MinGitVersion()
}
