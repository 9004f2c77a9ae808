package worker

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadLines reads one entry per line, skipping blanks, '#' comments and
// repeated entries while keeping first-seen order.
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "worker: open file")
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "worker: scan file")
	}
	return lines, nil
}
