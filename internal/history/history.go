// Package history reads the move log desktop clients append to when they
// act on suggestions. Replay feeds trainable rows back into the engine.
package history

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// MoveRecord is one row of the move history log. Timestamp stays a string:
// the log is written by external clients and only the outcome fields matter.
type MoveRecord struct {
	Timestamp       string
	Action          string
	FileName        string
	SrcPath         string
	DstPath         string
	SuggestionID    string
	SuggestedFolder string
	Accepted        bool
	Confidence      float64
	Rationale       string
	Note            string
}

// Trainable reports whether the row carries a learnable outcome: the file
// actually landed somewhere under an accept or choose action.
func (m MoveRecord) Trainable() bool {
	return (m.Action == "accept" || m.Action == "choose") && m.DstPath != ""
}

// ReadMoves parses a move log. The header decides column positions, so old
// logs with extra or reordered columns still load. An empty file yields no
// records and no error.
func ReadMoves(path string) ([]MoveRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading move log: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading move log header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"action", "file_name", "dst_path"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("move log missing %q column", required)
		}
	}

	var moves []MoveRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading move log row: %w", err)
		}
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		confidence, _ := strconv.ParseFloat(field("confidence"), 64)
		moves = append(moves, MoveRecord{
			Timestamp:       field("timestamp"),
			Action:          field("action"),
			FileName:        field("file_name"),
			SrcPath:         field("src_path"),
			DstPath:         field("dst_path"),
			SuggestionID:    field("suggestion_id"),
			SuggestedFolder: field("suggested_folder"),
			Accepted:        field("accepted") == "1",
			Confidence:      confidence,
			Rationale:       field("rationale"),
			Note:            field("note"),
		})
	}
	return moves, nil
}
