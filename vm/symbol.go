package vm

// ---------------------------------------------------------------------------
// AtomTable: Interned words
// ---------------------------------------------------------------------------

// AtomTable interns word text to stable IDs. Atoms are immutable; an ID is
// recycled only after the collector has proven the atom unreachable.
type AtomTable struct {
	byName map[string]uint32 // text -> ID
	byID   []string          // ID -> text
	live   []bool            // ID slot in use
	pinned []bool            // never collected
	free   []uint32          // recycled IDs
}

// NewAtomTable creates an empty atom table.
func NewAtomTable() *AtomTable {
	return &AtomTable{
		byName: make(map[string]uint32),
		byID:   make([]string, 0, 256),
		live:   make([]bool, 0, 256),
		pinned: make([]bool, 0, 256),
	}
}

// Intern returns the ID for text, creating one if needed.
func (at *AtomTable) Intern(text string) uint32 {
	if id, ok := at.byName[text]; ok {
		return id
	}

	var id uint32
	if n := len(at.free); n > 0 {
		id = at.free[n-1]
		at.free = at.free[:n-1]
		at.byID[id] = text
		at.live[id] = true
		at.pinned[id] = false
	} else {
		id = uint32(len(at.byID))
		at.byID = append(at.byID, text)
		at.live = append(at.live, true)
		at.pinned = append(at.pinned, false)
	}
	at.byName[text] = id
	return id
}

// Lookup returns the ID for text without interning it.
func (at *AtomTable) Lookup(text string) (uint32, bool) {
	id, ok := at.byName[text]
	return id, ok
}

// Text returns the text for an ID, or "" if the ID is not live.
func (at *AtomTable) Text(id uint32) string {
	if int(id) >= len(at.byID) || !at.live[id] {
		return ""
	}
	return at.byID[id]
}

// Pin protects an atom from collection.
func (at *AtomTable) Pin(id uint32) {
	if int(id) < len(at.pinned) {
		at.pinned[id] = true
	}
}

// Len returns the number of live atoms.
func (at *AtomTable) Len() int {
	return len(at.byName)
}

// release drops every unpinned atom whose mark is false.
func (at *AtomTable) release(marked []bool) int {
	n := 0
	for id := range at.byID {
		if !at.live[id] || at.pinned[id] || (id < len(marked) && marked[id]) {
			continue
		}
		delete(at.byName, at.byID[id])
		at.byID[id] = ""
		at.live[id] = false
		at.free = append(at.free, uint32(id))
		n++
	}
	return n
}
