package main

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// FileList is the ordered set of uploaded files for one session. Order is
// user-controlled and is the page order of the merged output.
type FileList struct {
	mu      sync.Mutex
	recs    []FileRecord
	merged  *MergeOutput
	touched time.Time
}

// caller holds mu
func (l *FileList) index(id string) int {
	for i, r := range l.recs {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (l *FileList) touch() { l.touched = time.Now() }

// Add appends records, rejecting duplicate ids.
func (l *FileList) Add(recs ...FileRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touch()
	for _, r := range recs {
		if l.index(r.ID) >= 0 {
			return fmt.Errorf("duplicate file id %s", r.ID)
		}
		l.recs = append(l.recs, r)
	}
	return nil
}

// Remove deletes the record with the given id, keeping the rest in order.
func (l *FileList) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touch()
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.recs = append(l.recs[:i], l.recs[i+1:]...)
	return true
}

// Move places the record with the given id at the target index. All other
// records keep their relative order. Out-of-range targets are clamped.
func (l *FileList) Move(id string, to int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touch()
	from := l.index(id)
	if from < 0 {
		return false
	}
	if to < 0 {
		to = 0
	}
	if to > len(l.recs)-1 {
		to = len(l.recs) - 1
	}
	r := l.recs[from]
	l.recs = append(l.recs[:from], l.recs[from+1:]...)
	l.recs = append(l.recs, FileRecord{})
	copy(l.recs[to+1:], l.recs[to:])
	l.recs[to] = r
	return true
}

// Reorder replaces the list order with ids, which must be exactly the current
// id set (a permutation).
func (l *FileList) Reorder(ids []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touch()
	if len(ids) != len(l.recs) {
		return fmt.Errorf("order has %d ids, list has %d files", len(ids), len(l.recs))
	}
	byID := make(map[string]FileRecord, len(l.recs))
	for _, r := range l.recs {
		byID[r.ID] = r
	}
	next := make([]FileRecord, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate id %s in order", id)
		}
		seen[id] = struct{}{}
		r, ok := byID[id]
		if !ok {
			return fmt.Errorf("unknown id %s in order", id)
		}
		next = append(next, r)
	}
	l.recs = next
	return nil
}

// List returns a snapshot copy of the current order.
func (l *FileList) List() []FileRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touch()
	out := make([]FileRecord, len(l.recs))
	copy(out, l.recs)
	return out
}

func (l *FileList) Get(id string) (FileRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touch()
	i := l.index(id)
	if i < 0 {
		return FileRecord{}, false
	}
	return l.recs[i], true
}

func (l *FileList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recs)
}

// SetMerged stashes the latest merge result, replacing any previous one.
func (l *FileList) SetMerged(out *MergeOutput) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touch()
	l.merged = out
}

// Merged returns the stashed result if id matches.
func (l *FileList) Merged(id string) (*MergeOutput, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touch()
	if l.merged == nil || l.merged.ID != id {
		return nil, false
	}
	return l.merged, true
}

func (l *FileList) lastUsed() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.touched
}

// SessionStore maps session ids to their file lists. All state is ephemeral;
// idle sessions are dropped by the sweeper.
type SessionStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	byID map[string]*FileList
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{ttl: ttl, byID: make(map[string]*FileList)}
}

// Get returns the list for the session, creating it if needed.
func (s *SessionStore) Get(id string) *FileList {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok {
		l = &FileList{touched: time.Now()}
		s.byID[id] = l
	}
	return l
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *SessionStore) sweep() {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := 0
	for id, l := range s.byID {
		if l.lastUsed().Before(cutoff) {
			delete(s.byID, id)
			expired++
		}
	}
	if expired > 0 {
		log.Printf("[session] expired %d idle sessions, %d left", expired, len(s.byID))
	}
}

// StartSweeper prunes idle sessions in the background until stop is closed.
func (s *SessionStore) StartSweeper(stop <-chan struct{}) {
	interval := s.ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.sweep()
			case <-stop:
				return
			}
		}
	}()
}
