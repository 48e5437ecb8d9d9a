// Package repl is the statement parser, meta-command dispatcher, and input
// loop that drives internal/database — the layer spec.md deliberately
// leaves outside the storage core, given a concrete implementation here so
// the module is a runnable program.
package repl

import (
	"strconv"
	"strings"

	"btreedb/internal/dberrors"
	"btreedb/internal/row"
)

// StatementType distinguishes the two supported SQL-ish statements.
type StatementType int

const (
	StatementInsert StatementType = iota
	StatementSelect
)

// Statement is the parsed form of one input line that was not a
// meta-command.
type Statement struct {
	Type        StatementType
	RowToInsert row.Row
}

// PrepareStatement tokenizes line and builds a Statement, or returns an
// Input-category error using the exact wording spec.md §6 requires.
func PrepareStatement(line string) (*Statement, error) {
	if strings.HasPrefix(line, "insert") {
		return prepareInsert(line)
	}
	if line == "select" {
		return &Statement{Type: StatementSelect}, nil
	}
	return nil, dberrors.NewInput("unrecognized keyword at start of '" + line + "'.")
}

func prepareInsert(line string) (*Statement, error) {
	fields := strings.Fields(line)
	// fields[0] == "insert"; three more tokens are required.
	if len(fields) != 4 {
		return nil, dberrors.NewInput("syntax error. could not parse statement.")
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, dberrors.NewInput("syntax error. could not parse statement.")
	}
	if id < 0 {
		return nil, dberrors.NewInput("id must be positive.")
	}

	username, email := fields[2], fields[3]
	if len(username) > row.UsernameSize || len(email) > row.EmailSize {
		return nil, dberrors.NewInput("string is too long.")
	}

	return &Statement{
		Type: StatementInsert,
		RowToInsert: row.Row{
			ID:       uint32(id),
			Username: username,
			Email:    email,
		},
	}, nil
}
