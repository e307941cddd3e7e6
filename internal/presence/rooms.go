package presence

// roomIndex maps a room id to the set of connection ids currently inside.
// It is a plain data structure: all access is serialized by the Registry's
// mutex, which is held across every compound update so no reader can observe
// a connection in two rooms or in none while its session says otherwise.
type roomIndex map[int64]map[string]struct{}

// add puts connID into roomID's set.
func (idx roomIndex) add(roomID int64, connID string) {
	set, ok := idx[roomID]
	if !ok {
		set = make(map[string]struct{})
		idx[roomID] = set
	}
	set[connID] = struct{}{}
}

// remove drops connID from roomID's set. Emptied sets are evicted from the
// index; room existence itself is backed by the room store, so an absent
// entry and an empty one are indistinguishable through members.
func (idx roomIndex) remove(roomID int64, connID string) bool {
	set, ok := idx[roomID]
	if !ok {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(idx, roomID)
	}
	return true
}

// members returns a copy of roomID's set. Unknown rooms yield an empty slice.
func (idx roomIndex) members(roomID int64) []string {
	set := idx[roomID]
	out := make([]string, 0, len(set))
	for connID := range set {
		out = append(out, connID)
	}
	return out
}

// counts returns the member count per room.
func (idx roomIndex) counts() map[int64]int {
	out := make(map[int64]int, len(idx))
	for roomID, set := range idx {
		out[roomID] = len(set)
	}
	return out
}
