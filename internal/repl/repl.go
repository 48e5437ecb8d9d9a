package repl

import (
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"

	"btreedb/internal/database"
	"btreedb/internal/dberrors"
)

// Run drives the read-prepare-execute loop against db until ".exit", EOF, or
// a Fatal error. It returns nil on a clean ".exit", and the triggering error
// when a Fatal condition forces shutdown — the caller (cmd/btreedb) decides
// how to log and exit on that error.
func Run(db *database.Database, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "db > ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
	})
	if err != nil {
		return dberrors.Wrap(dberrors.Fatal, err, "failed to start input reader")
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return dberrors.Wrap(dberrors.Fatal, err, "failed to read input")
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			switch DispatchMeta(rl.Stdout(), db, line) {
			case MetaExit:
				return nil
			case MetaHandled:
				continue
			case MetaUnrecognized:
				logrus.WithField("command", line).Debug("unrecognized meta-command")
				io.WriteString(rl.Stdout(), "unrecognized command '"+line+"'.\n")
				continue
			}
		}

		stmt, err := PrepareStatement(line)
		if err != nil {
			io.WriteString(rl.Stdout(), err.Error()+"\n")
			continue
		}

		if err := Execute(rl.Stdout(), db, stmt); err != nil {
			return err
		}
	}
}
