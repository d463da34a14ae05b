package treeboard

import (
	"fmt"
	"strings"
)

// ColumnSet is the ordered list of column names supplied with the rows
type ColumnSet []string

// Contains reports whether col is part of the set
func (cs ColumnSet) Contains(col string) bool {
	for _, c := range cs {
		if c == col {
			return true
		}
	}
	return false
}

func (cs ColumnSet) clone() ColumnSet {
	out := make(ColumnSet, len(cs))
	copy(out, cs)
	return out
}

// Snapshot is the unit that replaces the store content on every full fetch.
// Rows and Columns always travel together.
type Snapshot struct {
	Rows             []Row
	Columns          ColumnSet
	ProcessingTimeMs int64
}

// SearchResult is a settled search
type SearchResult struct {
	Rows             []Row
	ProcessingTimeMs int64
	SearchMethod     string
}

// SortResult is a settled sort
type SortResult struct {
	Rows             []Row
	ProcessingTimeMs int64
}

// StructureMode is the storage variant the backend currently uses
type StructureMode string

const (
	StructureAVL   StructureMode = "AVL"
	StructureBST   StructureMode = "BST"
	StructureBTree StructureMode = "BTREE"
	StructureNone  StructureMode = "None"
)

// ConvertTargets lists the structures a conversion may target
var ConvertTargets = []StructureMode{StructureAVL, StructureBST, StructureBTree}

// ParseStructureMode parses a conversion target (case-insensitive)
func ParseStructureMode(s string) (StructureMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AVL":
		return StructureAVL, nil
	case "BST":
		return StructureBST, nil
	case "BTREE", "B-TREE":
		return StructureBTree, nil
	}
	return StructureNone, fmt.Errorf("%w: %q", ErrInvalidStructure, s)
}

// Direction is the sort order requested from the backend
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// ParseDirection parses ASC/DESC (case-insensitive)
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC", "":
		return Ascending, nil
	case "DESC":
		return Descending, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}
