package engine

import "github.com/louisbranch/feedwatch/internal/services/agent/entry"

// knownState is the engine's view of the feed: the entries of the last
// accepted snapshot, every id ever seen, and the latest destination
// reference. ids only grows, and always covers entries.
type knownState struct {
	entries []entry.Entry
	ids     map[string]struct{}
	roomRef string
}

func newKnownState() *knownState {
	return &knownState{ids: make(map[string]struct{})}
}

// unseen returns the entries whose id has never been recorded, in order.
func (s *knownState) unseen(entries []entry.Entry) []entry.Entry {
	var fresh []entry.Entry
	for _, item := range entries {
		if _, ok := s.ids[item.ID]; !ok {
			fresh = append(fresh, item)
		}
	}
	return fresh
}

// accept replaces the entry list with a snapshot and records its ids.
func (s *knownState) accept(entries []entry.Entry) {
	s.entries = append([]entry.Entry(nil), entries...)
	for _, item := range entries {
		s.ids[item.ID] = struct{}{}
	}
}

// observeRoomRef stores ref unless it is empty.
func (s *knownState) observeRoomRef(ref string) {
	if ref != "" {
		s.roomRef = ref
	}
}

func (s *knownState) seen(id string) bool {
	_, ok := s.ids[id]
	return ok
}
