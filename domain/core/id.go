package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// RunID identifies one archived analysis of one file.
type RunID ID

func (id RunID) String() string { return ID(id).String() }

// NewRunID returns a fresh time-ordered run identifier.
func NewRunID() RunID { return RunID(NewID()) }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid run ID %q: %w", s, err)
	}
	return RunID(s), nil
}

// WellID is a plate coordinate such as "A1" or "H12".
type WellID string

var wellPattern = regexp.MustCompile(`^([A-Z]{1,2})(\d{1,3})$`)

// ParseWellID validates and normalizes a well coordinate. The instrument's
// column form "Y (A1)" is accepted as well as the bare coordinate.
func ParseWellID(s string) (WellID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(s, "Y (") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[3 : len(s)-1])
	}
	m := wellPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("invalid well identifier %q", s)
	}
	col, _ := strconv.Atoi(m[2])
	if col == 0 {
		return "", fmt.Errorf("invalid well identifier %q: column must be positive", s)
	}
	return WellID(fmt.Sprintf("%s%d", m[1], col)), nil
}

func (w WellID) String() string { return string(w) }

// Column returns the instrument's column header for the well, e.g. "Y (A1)".
func (w WellID) Column() string { return "Y (" + string(w) + ")" }

// Less orders wells row-major: A1 < A2 < A10 < B1.
func (w WellID) Less(other WellID) bool {
	rowA, colA := w.split()
	rowB, colB := other.split()
	if rowA != rowB {
		if len(rowA) != len(rowB) {
			return len(rowA) < len(rowB)
		}
		return rowA < rowB
	}
	return colA < colB
}

func (w WellID) split() (string, int) {
	m := wellPattern.FindStringSubmatch(string(w))
	if m == nil {
		return string(w), 0
	}
	col, _ := strconv.Atoi(m[2])
	return m[1], col
}
