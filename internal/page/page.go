// Package page is the pure accessor surface over a 4096-byte page buffer:
// it never owns memory and never does I/O, it only knows how to read and
// write the fixed offsets that make up a leaf or internal node.
package page

import (
	"encoding/binary"

	"btreedb/internal/row"
)

// Size is the fixed on-disk and in-memory page size.
const Size = 4096

// NodeType distinguishes the two B+-tree node variants.
type NodeType uint8

const (
	Internal NodeType = 0
	Leaf     NodeType = 1
)

// Common header layout, shared by both node variants.
const (
	NodeTypeOffset      = 0
	NodeTypeSize        = 1
	IsRootOffset        = NodeTypeOffset + NodeTypeSize
	IsRootSize          = 1
	ParentPointerOffset = IsRootOffset + IsRootSize
	ParentPointerSize   = 4
	CommonHeaderSize    = NodeTypeSize + IsRootSize + ParentPointerSize // 6
)

// Leaf header layout (follows the common header).
const (
	LeafNumCellsOffset = CommonHeaderSize
	LeafNumCellsSize   = 4
	LeafHeaderSize     = CommonHeaderSize + LeafNumCellsSize // 10

	LeafKeyOffset  = 0
	LeafKeySize    = 4
	LeafValueSize  = row.Size
	LeafCellSize   = LeafKeySize + LeafValueSize // 295
	LeafValueOffset = LeafKeyOffset + LeafKeySize

	LeafSpaceForCells = Size - LeafHeaderSize
	LeafMaxCells      = LeafSpaceForCells / LeafCellSize // 13

	// LeftSplitCount and RightSplitCount sum to LeafMaxCells+1: the 14
	// cells present at the instant a 14th insert overflows a full leaf.
	LeftSplitCount  = (LeafMaxCells + 1) / 2
	RightSplitCount = (LeafMaxCells + 1) - LeftSplitCount
)

// Internal header layout (follows the common header).
const (
	InternalNumKeysOffset    = CommonHeaderSize
	InternalNumKeysSize      = 4
	InternalRightChildOffset = InternalNumKeysOffset + InternalNumKeysSize
	InternalRightChildSize   = 4
	InternalHeaderSize       = CommonHeaderSize + InternalNumKeysSize + InternalRightChildSize // 14

	InternalChildSize = 4
	InternalKeySize   = 4
	InternalCellSize  = InternalChildSize + InternalKeySize // 8
)

// GetNodeType reports whether buf holds a leaf or internal node.
func GetNodeType(buf []byte) NodeType { return NodeType(buf[NodeTypeOffset]) }

// SetNodeType tags buf as holding a leaf or internal node.
func SetNodeType(buf []byte, t NodeType) { buf[NodeTypeOffset] = byte(t) }

// IsRoot reports the root bit in the common header.
func IsRoot(buf []byte) bool { return buf[IsRootOffset] != 0 }

// SetIsRoot sets the root bit in the common header.
func SetIsRoot(buf []byte, v bool) {
	if v {
		buf[IsRootOffset] = 1
	} else {
		buf[IsRootOffset] = 0
	}
}

// ParentPointer reads the reserved parent-page field. Not maintained by the
// tree in this version (see spec §3); exposed for completeness only.
func ParentPointer(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[ParentPointerOffset : ParentPointerOffset+ParentPointerSize])
}

// SetParentPointer writes the reserved parent-page field.
func SetParentPointer(buf []byte, p uint32) {
	binary.LittleEndian.PutUint32(buf[ParentPointerOffset:ParentPointerOffset+ParentPointerSize], p)
}

// --- Leaf node body ---

// LeafNumCells returns the number of cells stored in the leaf.
func LeafNumCells(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[LeafNumCellsOffset : LeafNumCellsOffset+LeafNumCellsSize])
}

// SetLeafNumCells sets the leaf's cell count.
func SetLeafNumCells(buf []byte, n uint32) {
	binary.LittleEndian.PutUint32(buf[LeafNumCellsOffset:LeafNumCellsOffset+LeafNumCellsSize], n)
}

// LeafCell returns the raw cell slot (key + value) at index i.
func LeafCell(buf []byte, i uint32) []byte {
	off := LeafHeaderSize + i*LeafCellSize
	return buf[off : off+LeafCellSize]
}

// LeafKey returns the key stored in cell i.
func LeafKey(buf []byte, i uint32) uint32 {
	cell := LeafCell(buf, i)
	return binary.LittleEndian.Uint32(cell[LeafKeyOffset : LeafKeyOffset+LeafKeySize])
}

// SetLeafKey overwrites the key stored in cell i.
func SetLeafKey(buf []byte, i uint32, key uint32) {
	cell := LeafCell(buf, i)
	binary.LittleEndian.PutUint32(cell[LeafKeyOffset:LeafKeyOffset+LeafKeySize], key)
}

// LeafValue returns the row slot (291 bytes) stored in cell i.
func LeafValue(buf []byte, i uint32) []byte {
	cell := LeafCell(buf, i)
	return cell[LeafValueOffset : LeafValueOffset+LeafValueSize]
}

// LeafMaxKey returns the greatest key in the leaf. The caller must ensure
// numCells > 0.
func LeafMaxKey(buf []byte) uint32 {
	return LeafKey(buf, LeafNumCells(buf)-1)
}

// InitializeLeaf zeroes buf and marks it as an empty, non-root leaf.
func InitializeLeaf(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	SetNodeType(buf, Leaf)
	SetIsRoot(buf, false)
	SetLeafNumCells(buf, 0)
}

// --- Internal node body ---

// InternalNumKeys returns the number of keys stored in the internal node.
func InternalNumKeys(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[InternalNumKeysOffset : InternalNumKeysOffset+InternalNumKeysSize])
}

// SetInternalNumKeys sets the internal node's key count.
func SetInternalNumKeys(buf []byte, n uint32) {
	binary.LittleEndian.PutUint32(buf[InternalNumKeysOffset:InternalNumKeysOffset+InternalNumKeysSize], n)
}

// InternalRightChild returns the page holding keys greater than every key
// stored in this node.
func InternalRightChild(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[InternalRightChildOffset : InternalRightChildOffset+InternalRightChildSize])
}

// SetInternalRightChild sets the right_child pointer.
func SetInternalRightChild(buf []byte, child uint32) {
	binary.LittleEndian.PutUint32(buf[InternalRightChildOffset:InternalRightChildOffset+InternalRightChildSize], child)
}

// InternalCell returns the raw cell slot (child + key) at index i.
func InternalCell(buf []byte, i uint32) []byte {
	off := InternalHeaderSize + i*InternalCellSize
	return buf[off : off+InternalCellSize]
}

// InternalKey returns the key stored in cell i.
func InternalKey(buf []byte, i uint32) uint32 {
	cell := InternalCell(buf, i)
	return binary.LittleEndian.Uint32(cell[InternalChildSize : InternalChildSize+InternalKeySize])
}

// SetInternalKey overwrites the key stored in cell i.
func SetInternalKey(buf []byte, i uint32, key uint32) {
	cell := InternalCell(buf, i)
	binary.LittleEndian.PutUint32(cell[InternalChildSize:InternalChildSize+InternalKeySize], key)
}

// InternalChildRaw returns the child-page field stored directly in cell i,
// without the i==numKeys right_child fallback InternalChild applies.
func InternalChildRaw(buf []byte, i uint32) uint32 {
	cell := InternalCell(buf, i)
	return binary.LittleEndian.Uint32(cell[0:InternalChildSize])
}

// SetInternalChild overwrites the child-page field stored in cell i.
func SetInternalChild(buf []byte, i uint32, child uint32) {
	cell := InternalCell(buf, i)
	binary.LittleEndian.PutUint32(cell[0:InternalChildSize], child)
}

// InternalChild returns the child page for index i: for i == numKeys this
// is the right_child pointer, otherwise it is the cell's own child field.
func InternalChild(buf []byte, i uint32) uint32 {
	numKeys := InternalNumKeys(buf)
	if i == numKeys {
		return InternalRightChild(buf)
	}
	return InternalChildRaw(buf, i)
}

// InternalMaxKey returns the last key stored in this node (key num_keys-1).
// Keys in the right_child subtree are greater than it.
func InternalMaxKey(buf []byte) uint32 {
	return InternalKey(buf, InternalNumKeys(buf)-1)
}

// InitializeInternal zeroes buf and marks it as an empty, non-root internal
// node.
func InitializeInternal(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	SetNodeType(buf, Internal)
	SetIsRoot(buf, false)
	SetInternalNumKeys(buf, 0)
}

// MaxKey returns the last key stored in this node: for a leaf that is its
// greatest key, for an internal node it is InternalMaxKey.
func MaxKey(buf []byte) uint32 {
	if GetNodeType(buf) == Leaf {
		return LeafMaxKey(buf)
	}
	return InternalMaxKey(buf)
}
