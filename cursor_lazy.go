package sst

// LazyCursor defers constructing its underlying cursor until the first
// positioning call, given a producer function. This lets a caller build a
// tree of cursors (e.g. one per SST in a version) without opening every
// file up front — a seek that never reaches a given child never pays for
// it.
type LazyCursor struct {
	produce func() (Cursor, error)
	inner   Cursor
	err     error
}

// NewLazyCursor returns a cursor that calls produce on first use and then
// behaves identically to whatever it returns.
func NewLazyCursor(produce func() (Cursor, error)) *LazyCursor {
	return &LazyCursor{produce: produce}
}

func (l *LazyCursor) ensure() bool {
	if l.err != nil {
		return false
	}
	if l.inner == nil {
		inner, err := l.produce()
		if err != nil {
			l.err = err
			return false
		}
		l.inner = inner
	}
	return true
}

func (l *LazyCursor) Valid() bool {
	if l.err != nil || l.inner == nil {
		return false
	}
	return l.inner.Valid()
}

func (l *LazyCursor) Key() KeyRef {
	if !l.Valid() {
		return KeyRef{}
	}
	return l.inner.Key()
}

func (l *LazyCursor) Value() []byte {
	if !l.Valid() {
		return nil
	}
	return l.inner.Value()
}

func (l *LazyCursor) Tombstone() bool {
	if !l.Valid() {
		return false
	}
	return l.inner.Tombstone()
}

func (l *LazyCursor) Err() error {
	if l.err != nil {
		return l.err
	}
	if l.inner != nil {
		return l.inner.Err()
	}
	return nil
}

func (l *LazyCursor) SeekToFirst() {
	if l.ensure() {
		l.inner.SeekToFirst()
	}
}

func (l *LazyCursor) SeekToLast() {
	if l.ensure() {
		l.inner.SeekToLast()
	}
}

func (l *LazyCursor) Seek(k KeyRef) {
	if l.ensure() {
		l.inner.Seek(k)
	}
}

func (l *LazyCursor) Next() {
	if l.ensure() {
		l.inner.Next()
	}
}

func (l *LazyCursor) Prev() {
	if l.ensure() {
		l.inner.Prev()
	}
}
