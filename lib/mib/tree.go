// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mib

import (
	"encoding/hex"
	"fmt"

	"github.com/google/btree"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/double-agentx/lib/codec"
	"github.com/bureau-foundation/double-agentx/lib/oid"
)

// treeDegree is the B-tree branching factor. A GPU MIB holds tens to
// hundreds of keys; any reasonable degree keeps it to a few levels.
const treeDegree = 16

// tree is the ordered OID -> Value map. It is owned by an Engine and
// never handed out; callers see Snapshot copies.
type tree struct {
	items *btree.BTreeG[VarBind]
}

func lessByName(a, b VarBind) bool {
	return oid.Compare(a.Name, b.Name) < 0
}

func newTree() *tree {
	return &tree{items: btree.NewG(treeDegree, lessByName)}
}

func (t *tree) clear() {
	t.items.Clear(false)
}

func (t *tree) insert(name oid.OID, value Value) {
	t.items.ReplaceOrInsert(VarBind{Name: name, Value: value})
}

func (t *tree) len() int {
	return t.items.Len()
}

// get returns the value stored at exactly name.
func (t *tree) get(name oid.OID) (Value, bool) {
	found, ok := t.items.Get(VarBind{Name: name})
	return found.Value, ok
}

// next returns the first binding whose name is >= start (include) or
// > start (exclude).
func (t *tree) next(start oid.OID, include bool) (VarBind, bool) {
	var result VarBind
	var found bool
	t.items.AscendGreaterOrEqual(VarBind{Name: start}, func(candidate VarBind) bool {
		if !include && candidate.Name.Equal(start) {
			return true
		}
		result, found = candidate, true
		return false
	})
	return result, found
}

// resolveRange applies the successor rule for one search range: the
// first qualifying key is returned only if it lies below the range
// end; otherwise the requested start is echoed with EndOfMibView.
func (t *tree) resolveRange(searchRange SearchRange) VarBind {
	candidate, found := t.next(searchRange.Start, searchRange.Include)
	if found && (searchRange.End.IsNull() || candidate.Name.Less(searchRange.End)) {
		return VarBind{Name: candidate.Name.Clone(), Value: candidate.Value}
	}
	return VarBind{Name: searchRange.Start, Value: EndOfMibView}
}

// snapshot returns every binding in order. Names are copied.
func (t *tree) snapshot() Snapshot {
	bindings := make([]VarBind, 0, t.items.Len())
	t.items.Ascend(func(binding VarBind) bool {
		bindings = append(bindings, VarBind{Name: binding.Name.Clone(), Value: binding.Value})
		return true
	})
	return Snapshot{Bindings: bindings}
}

// Snapshot is an ordered copy of the tree produced by one rebuild.
type Snapshot struct {
	Bindings []VarBind `json:"bindings"`
}

// Encode returns the deterministic CBOR encoding of the bindings.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := codec.Marshal(s.Bindings)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot reads a snapshot previously written by
// [Snapshot.Encode]. Bindings must be in strictly ascending OID order.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var bindings []VarBind
	if err := codec.Unmarshal(data, &bindings); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	for i := 1; i < len(bindings); i++ {
		if oid.Compare(bindings[i-1].Name, bindings[i].Name) >= 0 {
			return Snapshot{}, fmt.Errorf("decoding snapshot: binding %d (%s) does not follow %s",
				i, bindings[i].Name, bindings[i-1].Name)
		}
	}
	return Snapshot{Bindings: bindings}, nil
}

// Digest returns the hex BLAKE3-256 hash of the snapshot's encoding.
// Two rebuilds from identical command output have identical digests.
func (s Snapshot) Digest() (string, error) {
	data, err := s.Encode()
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
