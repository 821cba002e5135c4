package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	maxEntries = 500
	ledgerFile = "triggers.txt"
)

// Ledger keeps a capped history of trigger hits, oldest first, mirrored to
// triggers.txt in the data directory
type Ledger struct {
	path    string
	entries []string
	now     func() time.Time
}

// OpenLedger loads the ledger kept in dataDir. A missing file yields an empty ledger.
func OpenLedger(dataDir string) (*Ledger, error) {
	l := &Ledger{
		path: filepath.Join(dataDir, ledgerFile),
		now:  time.Now,
	}

	lines, err := readLines(l.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	l.entries = trim(lines)

	return l, nil
}

// Record appends "<timestamp>: <source> -> <text>" and saves the ledger
func (l *Ledger) Record(source, text string) error {
	timestamp := l.now().UTC().Format("Mon Jan 02, 2006 at 15:04:05 GMT")
	l.entries = trim(append(l.entries, fmt.Sprintf("%s: %s -> %s", timestamp, source, text)))

	if err := writeLines(l.path, l.entries); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// Entries returns the ledger, oldest first
func (l *Ledger) Entries() []string {
	return append([]string(nil), l.entries...)
}

// Path is the file backing the ledger
func (l *Ledger) Path() string {
	return l.path
}

func trim(entries []string) []string {
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
	return entries
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func writeLines(path string, lines []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return w.Flush()
}
