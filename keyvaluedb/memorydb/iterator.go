package memorydb

// iterator walks over entries, the slice is not shared with the DB.
type iterator struct {
	entries []entry
	pos     int
}

func (it *iterator) Valid() bool {
	return it.pos < len(it.entries)
}

func (it *iterator) Next() {
	if it.Valid() {
		it.pos++
	}
}

func (it *iterator) Key() []byte {
	if !it.Valid() {
		return nil
	}
	return it.entries[it.pos].key
}

func (it *iterator) Value() []byte {
	if !it.Valid() {
		return nil
	}
	return it.entries[it.pos].value
}

func (it *iterator) Close() error {
	it.entries = nil
	return nil
}
