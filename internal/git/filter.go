package git

import "strings"

// FilterCommits keeps the commits whose id, author, date or message contains
// query, ignoring case. An empty query keeps everything.
func FilterCommits(commits []Commit, query string) []Commit {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return commits
	}
	filtered := []Commit{}
	for _, c := range commits {
		if strings.Contains(c.searchText(), q) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func (c Commit) searchText() string {
	return strings.ToLower(strings.Join([]string{c.FullID, c.Author, c.Date, c.Message}, "\n"))
}
