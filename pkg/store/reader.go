package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"chatlog/pkg/logger"
	"chatlog/pkg/models"
)

// SkipReason says why a log line was not turned into a record.
type SkipReason string

const (
	SkipMalformed    SkipReason = "malformed_json"
	SkipUnknownEvent SkipReason = "unknown_event"
)

// LineResult is the outcome of parsing one non-blank log line.
type LineResult struct {
	Line   int // 1-based
	Record models.MessageRecord
	Skip   SkipReason
	Err    error
}

func (r LineResult) OK() bool { return r.Skip == "" }

// ReadResult holds the valid records of a log, in file order, and how many
// lines were skipped.
type ReadResult struct {
	Records []models.MessageRecord
	Skipped int
}

// ParseLog parses JSONL from r. Blank lines are ignored; every other line
// yields a LineResult. The only error returned is from r itself.
func ParseLog(r io.Reader) ([]LineResult, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var out []LineResult
	lineNo := 0
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
				out = append(out, parseLine(lineNo, trimmed))
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
	}
}

func parseLine(n int, b []byte) LineResult {
	var rec models.MessageRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return LineResult{Line: n, Skip: SkipMalformed, Err: err}
	}
	if !rec.Event.Valid() {
		return LineResult{Line: n, Skip: SkipUnknownEvent, Err: fmt.Errorf("unknown event %q", rec.Event)}
	}
	return LineResult{Line: n, Record: rec}
}

// Collect keeps the valid records of results and counts the rest.
func Collect(results []LineResult) ReadResult {
	res := ReadResult{Records: make([]models.MessageRecord, 0, len(results))}
	for _, r := range results {
		if !r.OK() {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, r.Record)
	}
	return res
}

// ReadAll returns the records of a chat's log in append order. A missing
// log is an empty result.
func (s *Store) ReadAll(chatID int64) (ReadResult, error) {
	f, err := os.Open(s.logPath(chatID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ReadResult{Records: []models.MessageRecord{}}, nil
		}
		return ReadResult{}, fmt.Errorf("open chat %d log: %w", chatID, err)
	}
	defer f.Close()

	lines, err := ParseLog(f)
	if err != nil {
		return ReadResult{}, fmt.Errorf("read chat %d log: %w", chatID, err)
	}
	res := Collect(lines)
	if res.Skipped > 0 {
		skippedLinesTotal.Add(float64(res.Skipped))
		logger.Debug("chat_log_lines_skipped", "chat_id", chatID, "skipped", res.Skipped)
	}
	return res, nil
}
