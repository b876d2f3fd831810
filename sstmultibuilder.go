package sst

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nyxdb/sstcore/internal/errs"
)

// SstMultiBuilder wraps a sequence of SstBuilders, minting output paths
// "{prefix}/{n}{suffix}" (n a 0-based decimal counter) and rotating to a
// fresh file as the active one approaches TargetFileSize, would otherwise
// cross TableFullSize, or is told to via SplitHint. The sort order is
// preserved across the returned files: the last key of file i is strictly
// less than the first key of file i+1, since every key flows through
// exactly one builder in ascending order (§4.7).
type SstMultiBuilder struct {
	prefix string
	suffix string
	opts   BuilderOptions

	counter int
	cur     *SstBuilder
	curPath string

	splitPending bool
	sealed       bool
	paths        []string
}

// NewSstMultiBuilder creates the first output file under prefix and returns
// a multi-builder ready for writes.
func NewSstMultiBuilder(prefix, suffix string, opts BuilderOptions) (*SstMultiBuilder, error) {
	opts = opts.Clamp()
	m := &SstMultiBuilder{prefix: prefix, suffix: suffix, opts: opts}
	if err := m.rotate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SstMultiBuilder) nextPath() string {
	return filepath.Join(m.prefix, fmt.Sprintf("%d%s", m.counter, m.suffix))
}

func (m *SstMultiBuilder) rotate() error {
	path := m.nextPath()
	b, err := NewSstBuilder(path, m.opts)
	if err != nil {
		return err
	}
	m.cur = b
	m.curPath = path
	m.counter++
	m.opts.Logger.Debugf("sst: multi-builder rotated to %s", path)
	return nil
}

// sealCurrentAndRotate seals the active builder (recording its path) and
// opens the next one.
func (m *SstMultiBuilder) sealCurrentAndRotate() error {
	if m.cur.NumKeys() > 0 {
		if err := m.cur.Seal(); err != nil {
			return err
		}
		m.paths = append(m.paths, m.curPath)
	} else if err := m.cur.Abandon(); err != nil {
		return err
	} else {
		os.Remove(m.curPath)
	}
	return m.rotate()
}

// Put appends a live-value entry, rotating output files as needed.
func (m *SstMultiBuilder) Put(key []byte, ts uint64, value []byte) error {
	return m.write(key, ts, value, false)
}

// Del appends a tombstone entry, rotating output files as needed.
func (m *SstMultiBuilder) Del(key []byte, ts uint64) error {
	return m.write(key, ts, nil, true)
}

func (m *SstMultiBuilder) write(key []byte, ts uint64, value []byte, tombstone bool) error {
	if m.sealed {
		return &errs.LogicError{Context: "put/del called on a multi-builder after seal"}
	}
	if m.splitPending {
		if err := m.sealCurrentAndRotate(); err != nil {
			return err
		}
		m.splitPending = false
	}

	err := m.writeOnce(key, ts, value, tombstone)
	var tableFull *errs.TableFullError
	if errors.As(err, &tableFull) {
		// The active file is genuinely full; rotate once and retry the
		// same write on a fresh file.
		if rotErr := m.sealCurrentAndRotate(); rotErr != nil {
			return rotErr
		}
		err = m.writeOnce(key, ts, value, tombstone)
	}
	if err != nil {
		return err
	}

	if m.cur.ApproxSize() >= m.opts.TargetFileSize {
		m.splitPending = true
	}
	return nil
}

func (m *SstMultiBuilder) writeOnce(key []byte, ts uint64, value []byte, tombstone bool) error {
	if tombstone {
		return m.cur.Del(key, ts)
	}
	return m.cur.Put(key, ts, value)
}

// SplitHint asks the multi-builder to consider rotating before its next
// write: a no-op below MinimumFileSize, otherwise it forces a rotation on
// the next Put/Del.
func (m *SstMultiBuilder) SplitHint() {
	if m.cur.ApproxSize() >= m.opts.MinimumFileSize {
		m.splitPending = true
	}
}

// Seal seals every file that received at least one write and returns their
// paths in ascending order. A trailing file opened by rotation but never
// written to is abandoned and removed rather than sealed as an empty
// table.
func (m *SstMultiBuilder) Seal() ([]string, error) {
	if m.sealed {
		return nil, &errs.LogicError{Context: "seal called twice on a multi-builder"}
	}
	m.sealed = true

	if m.cur.NumKeys() > 0 {
		if err := m.cur.Seal(); err != nil {
			return m.paths, err
		}
		m.paths = append(m.paths, m.curPath)
	} else {
		if err := m.cur.Abandon(); err != nil {
			return m.paths, err
		}
		os.Remove(m.curPath)
	}
	return m.paths, nil
}
