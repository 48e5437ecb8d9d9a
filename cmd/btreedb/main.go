// Command btreedb is a single-table, file-backed B+-tree database with a
// tiny insert/select REPL, modeled on the classic db-from-scratch tutorials.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"btreedb/internal/database"
	"btreedb/internal/dberrors"
	"btreedb/internal/repl"
)

var version = "dev"

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	showVersion := false

	cmd := &cobra.Command{
		Use:           "btreedb <db-file-path>",
		Short:         "A single-table B+-tree database with an insert/select REPL",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println("btreedb", version)
				return nil
			}
			return runREPL(args[0])
		},
	}

	cmd.Flags().BoolVar(&showVersion, "version", false, "print the version and exit")
	return cmd
}

func runREPL(path string) error {
	db, err := database.Open(path)
	if err != nil {
		return fatal(err)
	}
	defer db.Close()

	historyFile := path + ".history"
	if err := repl.Run(db, historyFile); err != nil {
		return fatal(err)
	}
	return nil
}

// fatal logs a Fatal-category error with its stack trace (via
// github.com/pkg/errors' %+v support) and reports it up to cobra so the
// process exits non-zero. Input and Execution errors never reach here —
// internal/repl handles those inline and keeps looping.
func fatal(err error) error {
	logrus.WithField("category", dberrors.CategoryOf(err)).Errorf("%+v", errors.WithStack(err))
	return err
}
