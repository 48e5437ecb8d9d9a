package repl

import (
	"fmt"
	"io"

	"btreedb/internal/database"
	"btreedb/internal/dberrors"
	"btreedb/internal/row"
)

// Execute runs a prepared statement against db and writes its result to w
// using the exact literal strings spec.md §6 requires: "executed." on
// success, "error: <message>." for a recovered Execution failure, and the
// message itself (which already carries its final wording) for a recovered
// Input failure. Fatal errors are returned unformatted so the caller can
// abort the process.
func Execute(w io.Writer, db *database.Database, stmt *Statement) error {
	var err error
	switch stmt.Type {
	case StatementInsert:
		err = db.Insert(stmt.RowToInsert.ID, stmt.RowToInsert)
	case StatementSelect:
		err = db.Select(func(r row.Row) error {
			_, ferr := fmt.Fprintf(w, "(%d, %s, %s)\n", r.ID, r.Username, r.Email)
			return ferr
		})
	}
	return reportResult(w, err)
}

func reportResult(w io.Writer, err error) error {
	if err == nil {
		fmt.Fprintln(w, "executed.")
		return nil
	}

	switch dberrors.CategoryOf(err) {
	case dberrors.Input:
		fmt.Fprintln(w, err.Error())
		return nil
	case dberrors.Execution:
		fmt.Fprintf(w, "error: %s.\n", err.Error())
		return nil
	default:
		return err
	}
}
