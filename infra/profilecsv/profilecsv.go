// Package profilecsv reads day profiles from CSV files.
//
// The first record is the header. One column, named "time", holds the
// second of the day either as an integer or as HH:MM[:SS]; every other
// column is numeric. Blank or unparseable cells read as zero. Both comma
// and semicolon separated files are accepted.
package profilecsv

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/assetsim/core/profile"
)

// TimeColumn names the column holding the second of the day.
const TimeColumn = "time"

// ErrNoTimeColumn is returned when the header lacks the time column.
var ErrNoTimeColumn = errors.New("profile csv: missing time column")

// Load reads the profile at path.
func Load(path string) (*profile.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tbl, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tbl, nil
}

// Read parses a profile from r.
func Read(r io.Reader) (*profile.Table, error) {
	br := bufio.NewReader(r)
	comma, err := sniffComma(br)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("profile csv: empty input")
		}
		return nil, err
	}
	timeIdx := -1
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if strings.EqualFold(header[i], TimeColumn) {
			timeIdx = i
		}
	}
	if timeIdx < 0 {
		return nil, ErrNoTimeColumn
	}

	rows := map[int64]profile.Row{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if blank(rec) {
			continue
		}
		if timeIdx >= len(rec) {
			return nil, fmt.Errorf("line %d: missing time", line)
		}
		sec, err := parseTime(rec[timeIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if _, dup := rows[sec]; dup {
			return nil, fmt.Errorf("line %d: duplicate time %d", line, sec)
		}
		row := make(profile.Row, len(header)-1)
		for i, col := range header {
			if i == timeIdx || col == "" {
				continue
			}
			var cell string
			if i < len(rec) {
				cell = rec[i]
			}
			row[col] = number(cell)
		}
		rows[sec] = row
	}
	return profile.NewTable(rows)
}

func sniffComma(br *bufio.Reader) (rune, error) {
	line, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, err
	}
	if i := strings.IndexByte(string(line), '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Count(string(line), ";") > strings.Count(string(line), ",") {
		return ';', nil
	}
	return ',', nil
}

func parseTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty time")
	}
	if !strings.Contains(s, ":") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("time %q: %w", s, err)
		}
		return int64(v), nil
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("time %q: too many fields", s)
	}
	var sec int64
	for i, mul := range []int64{3600, 60, 1} {
		if i >= len(parts) {
			break
		}
		v, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("time %q: %w", s, err)
		}
		sec += v * mul
	}
	return sec, nil
}

// number parses a cell, accepting a decimal comma. Anything else reads as
// zero.
func number(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		v, err = strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return 0
		}
	}
	return v
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
