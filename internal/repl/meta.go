package repl

import (
	"fmt"
	"io"

	"btreedb/internal/database"
	"btreedb/internal/page"
	"btreedb/internal/row"
)

// MetaResult reports how a meta-command dispatch was handled.
type MetaResult int

const (
	// MetaHandled means the command was recognized and already acted on
	// (printed its output).
	MetaHandled MetaResult = iota
	// MetaUnrecognized means line was not a known meta-command.
	MetaUnrecognized
	// MetaExit means the caller should flush, close, and exit(0).
	MetaExit
)

// DispatchMeta handles a line beginning with '.'. It never returns an
// error: an unrecognized meta-command is reported via MetaUnrecognized, and
// the caller formats the exact "unrecognized command '<line>'." message
// (spec §6), since that string embeds the original line verbatim.
func DispatchMeta(w io.Writer, db *database.Database, line string) MetaResult {
	switch line {
	case ".exit":
		return MetaExit
	case ".btree":
		fmt.Fprintln(w, "Tree:")
		printTree(w, db, db.RootPageNum(), 0)
		return MetaHandled
	case ".constants":
		fmt.Fprintln(w, "Constants:")
		printConstants(w)
		return MetaHandled
	default:
		return MetaUnrecognized
	}
}

// printTree recurses through the B+-tree, indenting each level one tab
// deeper than its parent — leaves print "- leaf (size N)" followed by their
// keys, internal nodes print "- internal (size N)" followed by each child
// subtree interleaved with the separator key, matching spec §6's extended
// .btree contract.
func printTree(w io.Writer, db *database.Database, pageNum uint32, depth int) {
	buf, err := db.Page(pageNum)
	if err != nil {
		fmt.Fprintf(w, "%serror: %v\n", indent(depth), err)
		return
	}

	if page.GetNodeType(buf[:]) == page.Leaf {
		numCells := page.LeafNumCells(buf[:])
		fmt.Fprintf(w, "%s- leaf (size %d)\n", indent(depth), numCells)
		for i := uint32(0); i < numCells; i++ {
			fmt.Fprintf(w, "%s  - %d\n", indent(depth), page.LeafKey(buf[:], i))
		}
		return
	}

	numKeys := page.InternalNumKeys(buf[:])
	fmt.Fprintf(w, "%s- internal (size %d)\n", indent(depth), numKeys)
	for i := uint32(0); i < numKeys; i++ {
		printTree(w, db, page.InternalChild(buf[:], i), depth+1)
		fmt.Fprintf(w, "%s  - key %d\n", indent(depth), page.InternalKey(buf[:], i))
	}
	printTree(w, db, page.InternalChild(buf[:], numKeys), depth+1)
}

func indent(depth int) string {
	out := make([]byte, depth)
	for i := range out {
		out[i] = '\t'
	}
	return string(out)
}

func printConstants(w io.Writer) {
	fmt.Fprintf(w, "ROW_SIZE: %d\n", row.Size)
	fmt.Fprintf(w, "COMMON_NODE_HEADER_SIZE: %d\n", page.CommonHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_HEADER_SIZE: %d\n", page.LeafHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_CELL_SIZE: %d\n", page.LeafCellSize)
	fmt.Fprintf(w, "LEAF_NODE_SPACE_FOR_CELLS: %d\n", page.LeafSpaceForCells)
	fmt.Fprintf(w, "LEAF_NODE_MAX_CELLS: %d\n", page.LeafMaxCells)
}
