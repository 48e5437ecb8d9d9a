// Package database is the façade tying the pager and the B+-tree together:
// Open/Close and the insert/select operations the REPL drives.
package database

import (
	"github.com/sirupsen/logrus"

	"btreedb/internal/btree"
	"btreedb/internal/dberrors"
	"btreedb/internal/page"
	"btreedb/internal/pager"
	"btreedb/internal/row"
)

// Database is the single-table handle returned by Open.
type Database struct {
	pager *pager.Pager
	tree  *btree.BTree
}

// Open opens path, initializing a fresh root leaf (page 0) if the file is
// new, or accepting the existing root otherwise.
func Open(path string) (*Database, error) {
	p, err := pager.Open(path)
	if err != nil {
		return nil, err
	}

	const rootPageNum = 0
	if p.NumPages() == 0 {
		buf, err := p.GetPage(rootPageNum)
		if err != nil {
			return nil, err
		}
		page.InitializeLeaf(buf[:])
		page.SetIsRoot(buf[:], true)
	}

	return &Database{pager: p, tree: btree.Open(p, rootPageNum)}, nil
}

// Close flushes every dirty frame and closes the underlying file. It must
// not leave any frame unflushed.
func (d *Database) Close() error {
	return d.pager.Close()
}

// Insert adds row r under key, rejecting it with an Execution-category
// error if the key already exists.
func (d *Database) Insert(key uint32, r row.Row) error {
	c, err := d.tree.Find(key)
	if err != nil {
		return err
	}
	exists, err := c.Exists(key)
	if err != nil {
		return err
	}
	if exists {
		return dberrors.NewExecution("duplicate key")
	}
	if err := d.tree.Insert(c, key, r); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"component": "database", "key": key}).Debug("inserted row")
	return nil
}

// Select calls fn for every row of the root leaf in ascending key order.
// Iteration starts at btree.Start, which reads the root page as a leaf, so
// once the root has been promoted to an internal node the rows in its child
// leaves are not visited.
func (d *Database) Select(fn func(row.Row) error) error {
	c, err := d.tree.Start()
	if err != nil {
		return err
	}
	for !c.EndOfTable() {
		r, err := c.Value()
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
		if err := c.Advance(); err != nil {
			return err
		}
	}
	return nil
}

// RootPageNum exposes the tree's root for diagnostics (.btree).
func (d *Database) RootPageNum() uint32 { return d.tree.RootPageNum() }

// Page returns the raw page buffer for diagnostics (.btree). It is not
// intended for mutation by callers outside this package.
func (d *Database) Page(n uint32) (*[page.Size]byte, error) {
	return d.pager.GetPage(n)
}
