package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JournalFile is the transition journal's file name inside the runtime dir.
const JournalFile = "transitions.jsonl"

// JournalHandler appends every transition as one JSON line to path.
// The journal is an audit trail only; it is never read back to restore
// watcher state.
func JournalHandler(path string) Handler {
	return func(t Transition) error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("unable to create journal directory: %w", err)
		}

		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("unable to marshal transition: %w", err)
		}

		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("unable to open journal: %w", err)
		}
		defer f.Close()

		if _, err := f.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("unable to write journal: %w", err)
		}
		return nil
	}
}

// ReadJournal returns the last n transitions in path, oldest first.
// n <= 0 returns all of them. A missing journal is empty, not an error.
// Lines that do not parse are skipped.
func ReadJournal(path string, n int) ([]Transition, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var all []Transition
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var t Transition
		if err := json.Unmarshal(scanner.Bytes(), &t); err != nil {
			continue
		}
		all = append(all, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading journal: %w", err)
	}

	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}
