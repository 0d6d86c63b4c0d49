package engine

import "sync"

const defaultRecordsCap = 1024

// record keeps the inputs of a served suggestion so later feedback can
// replay them against the rule tables.
type record struct {
	signature string
	folder    string
	ext       string
	tokens    []string
}

// recordLog retains served suggestions in insertion order up to a fixed
// capacity. When full, the oldest record is evicted; feedback for an evicted
// id reports unknown_suggestion. Records are not removed on feedback, so a
// retained id can receive feedback more than once.
type recordLog struct {
	mu    sync.Mutex
	cap   int
	order []string
	byID  map[string]record
}

func newRecordLog(capacity int) *recordLog {
	if capacity <= 0 {
		capacity = defaultRecordsCap
	}
	return &recordLog{
		cap:  capacity,
		byID: make(map[string]record),
	}
}

func (l *recordLog) add(id string, rec record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.byID[id]; exists {
		l.byID[id] = rec
		return
	}
	if len(l.order) >= l.cap {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.byID, oldest)
	}
	l.order = append(l.order, id)
	l.byID[id] = rec
}

func (l *recordLog) get(id string) (record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.byID[id]
	return rec, ok
}

func (l *recordLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}
