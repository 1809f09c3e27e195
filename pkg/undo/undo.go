// Package undo implements the undo/redo engine (component G): a step log
// over an insert/delete history with nested atomic chaining.
//
// Design departure from the original: the C implementation keeps one flat
// growable byte "stream" plus a cursor into it, because C has no slice
// type and wants to amortize realloc calls. Go's slices make that manual
// cursor bookkeeping unnecessary, so this port stores, per recorded
// deletion step, the exact bytes it deleted as that step's own []byte
// (Data), and captures whatever an undo-of-an-insertion deletes into a
// parallel RedoData slot so a later Redo can replay the original
// insertion. The externally observable contract — a step log, chain
// nesting, and the undo/redo asymmetry — is unchanged.
package undo

import "github.com/vigna-ne/ne/pkg/status"

// Step records one primitive edit. Len > 0 means a deletion of Len bytes
// was recorded (its bytes live in the parallel Data slot so Undo can
// re-insert them); Len < 0 means an insertion of -Len bytes was recorded
// (no bytes needed to reverse it — just delete them again). Pos is
// negative-biased (-Pos-1) while the step is still open inside a chain,
// exactly mirroring ne's undo.c convention.
type Step struct {
	Line int64
	Pos  int64
	Len  int64
}

// chained reports whether this step is still (or was, before EndChain
// cleared the bias) linked to the step that follows it.
func (s Step) chained() bool { return s.Pos < 0 }

func (s Step) decodedPos() int64 {
	if s.Pos < 0 {
		return -(1 + s.Pos)
	}
	return s.Pos
}

// Applier is implemented by the buffer package so this package never
// depends on buffer types.
type Applier interface {
	GotoStep(line, pos int64)
	DeleteStep(line, pos, n int64) []byte
	InsertStep(line, pos int64, data []byte)
}

// Log is the undo/redo engine state for one buffer.
type Log struct {
	Steps    []Step
	Data     [][]byte // per-step deleted bytes, for Len>0 steps
	RedoData [][]byte // per-step bytes captured by Undo, for Len<0 steps

	CurStep      int
	LastStep     int
	LastSaveStep int

	linkUndos int
}

// NewLog returns an empty undo log.
func NewLog() *Log {
	return &Log{LastSaveStep: 0}
}

// Chaining reports whether a chain is currently open.
func (l *Log) Chaining() bool { return l.linkUndos > 0 }

// StartChain begins (or nests into) an atomic undo chain: every step
// recorded before the matching EndChain is undone/redone as one unit.
func (l *Log) StartChain() { l.linkUndos++ }

// EndChain closes one level of chain nesting. When the outermost chain
// closes, the bias on the last recorded step's Pos is removed so the
// chain's final step reads as a normal, unlinked step (the link is
// expressed by every step *before* it in the chain carrying the bias).
func (l *Log) EndChain() {
	if l.linkUndos == 0 {
		return
	}
	l.linkUndos--
	if l.linkUndos == 0 && l.CurStep > 0 && l.Steps[l.CurStep-1].chained() {
		s := l.Steps[l.CurStep-1]
		s.Pos = s.decodedPos()
		l.Steps[l.CurStep-1] = s
	}
}

func (l *Log) truncateRedoBranch() {
	if l.CurStep < len(l.Steps) {
		l.Steps = l.Steps[:l.CurStep]
		l.Data = l.Data[:l.CurStep]
		l.RedoData = l.RedoData[:l.CurStep]
	}
	if l.LastSaveStep > l.CurStep {
		l.LastSaveStep = -1
	}
}

func (l *Log) encodedPos(pos int64) int64 {
	if l.linkUndos > 0 {
		return -pos - 1
	}
	return pos
}

// RecordInsert appends the undo step for an insertion of n bytes at
// (line, pos). No bytes need to be retained: reversing an insertion is a
// pure delete.
func (l *Log) RecordInsert(line, pos, n int64) {
	l.truncateRedoBranch()
	l.Steps = append(l.Steps, Step{Line: line, Pos: l.encodedPos(pos), Len: -n})
	l.Data = append(l.Data, nil)
	l.RedoData = append(l.RedoData, nil)
	l.CurStep++
	l.LastStep = l.CurStep
}

// RecordDelete appends the undo step for a deletion, retaining the exact
// bytes removed so Undo can re-insert them verbatim.
func (l *Log) RecordDelete(line, pos int64, deleted []byte) {
	l.truncateRedoBranch()
	cp := append([]byte(nil), deleted...)
	l.Steps = append(l.Steps, Step{Line: line, Pos: l.encodedPos(pos), Len: int64(len(cp))})
	l.Data = append(l.Data, cp)
	l.RedoData = append(l.RedoData, nil)
	l.CurStep++
	l.LastStep = l.CurStep
}

// CanUndo/CanRedo report availability without mutating state.
func (l *Log) CanUndo() bool { return l.CurStep > 0 }
func (l *Log) CanRedo() bool { return l.CurStep < l.LastStep }

// Undo replays the current step (and every step chained before it)
// backward through a, reversing their effect.
func (l *Log) Undo(a Applier) status.Status {
	if !l.CanUndo() {
		return status.NOTHING_TO_UNDO
	}
	for {
		l.CurStep--
		step := l.Steps[l.CurStep]
		pos := step.decodedPos()
		a.GotoStep(step.Line, pos)

		switch {
		case step.Len < 0:
			n := -step.Len
			deleted := a.DeleteStep(step.Line, pos, n)
			l.RedoData[l.CurStep] = deleted
		case step.Len > 0:
			a.InsertStep(step.Line, pos, l.Data[l.CurStep])
		}

		if l.CurStep == 0 || !l.Steps[l.CurStep-1].chained() {
			break
		}
	}
	return status.OK
}

// Redo replays the chain starting at the current step forward through a.
func (l *Log) Redo(a Applier) status.Status {
	if !l.CanRedo() {
		return status.NOTHING_TO_REDO
	}
	for {
		step := l.Steps[l.CurStep]
		pos := step.decodedPos()
		a.GotoStep(step.Line, pos)

		switch {
		case step.Len < 0:
			a.InsertStep(step.Line, pos, l.RedoData[l.CurStep])
		case step.Len > 0:
			n := step.Len
			a.DeleteStep(step.Line, pos, n)
		}

		l.CurStep++
		if l.CurStep >= l.LastStep || !l.Steps[l.CurStep-1].chained() {
			break
		}
	}
	return status.OK
}

// MarkSaved records the current step as the last-saved point, for
// IsModified.
func (l *Log) MarkSaved() { l.LastSaveStep = l.CurStep }

// IsModified reports whether the log's position has moved since the last
// MarkSaved call.
func (l *Log) IsModified() bool { return l.CurStep != l.LastSaveStep }

// Reset discards the entire undo history.
func (l *Log) Reset() {
	l.Steps = nil
	l.Data = nil
	l.RedoData = nil
	l.CurStep, l.LastStep, l.LastSaveStep, l.linkUndos = 0, 0, 0, 0
}
