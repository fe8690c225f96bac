// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadow

// transaction accumulates the edits of one BeginTransaction/EndTransaction
// pair.
type transaction struct {
	edits     []Edit
	mutants   []Shadowable
	mutantSet map[Shadowable]struct{}
	dying     []*Descriptor
	open      bool
}

func newTransaction() *transaction {
	return &transaction{mutantSet: make(map[Shadowable]struct{})}
}

func (t *transaction) begin() {
	t.open = true
}

func (t *transaction) addEdit(e Edit) {
	if t.finished() {
		panic("shadow: forgot BeginTransaction?")
	}
	t.edits = append(t.edits, e)
}

// addMutant records l once, keeping the order of the first call.
func (t *transaction) addMutant(l Shadowable) {
	if t.finished() {
		panic("shadow: forgot BeginTransaction?")
	}
	if _, ok := t.mutantSet[l]; ok {
		return
	}
	t.mutantSet[l] = struct{}{}
	t.mutants = append(t.mutants, l)
}

func (t *transaction) addBufferToDestroy(d *Descriptor) {
	if t.finished() {
		panic("shadow: forgot BeginTransaction?")
	}
	t.dying = append(t.dying, d)
}

func (t *transaction) end() {
	t.edits = nil
	t.mutants = nil
	clear(t.mutantSet)
	t.dying = nil
	t.open = false
}

func (t *transaction) empty() bool {
	return len(t.edits) == 0 && len(t.mutants) == 0
}

func (t *transaction) finished() bool {
	return !t.open && t.empty()
}
