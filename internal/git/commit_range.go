package git

import (
	"context"
	"fmt"
	"strings"
)

const (
	fieldSeparator  = "\x1f"
	recordSeparator = "\x1e"
)

// RawCommit is a commit SHA with its unparsed message
type RawCommit struct {
	SHA     string
	Message string
}

// CommitsInRange returns the commits reachable from to but not from from, oldest first.
func (r *Repo) CommitsInRange(ctx context.Context, from, to string) ([]RawCommit, error) {
	if to == "" {
		to = "HEAD"
	}
	output, err := r.RunRaw(ctx, "log", "--reverse", "--format=%H%x1f%B%x1e", fmt.Sprintf("%s..%s", from, to))
	if err != nil {
		return nil, fmt.Errorf("failed to list commits in %s..%s: %w", from, to, err)
	}
	return parseLogRecords(output), nil
}

func parseLogRecords(output string) []RawCommit {
	var commits []RawCommit
	for _, record := range strings.Split(output, recordSeparator) {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSeparator, 2)
		if len(fields) != 2 {
			continue
		}
		commits = append(commits, RawCommit{
			SHA:     strings.TrimSpace(fields[0]),
			Message: strings.TrimRight(fields[1], "\n"),
		})
	}
	return commits
}
