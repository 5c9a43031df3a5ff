package ids

import "portfolio-api/internal/models"

// eventRing is a fixed-capacity FIFO store for security events: once full,
// each append overwrites the oldest entry. Not safe for concurrent use;
// callers hold the tracker lock.
type eventRing struct {
	data  []models.SecurityEvent
	head  int // next write position
	count int
}

func newEventRing(capacity int) *eventRing {
	if capacity <= 0 {
		capacity = 1000
	}
	return &eventRing{data: make([]models.SecurityEvent, capacity)}
}

func (r *eventRing) push(event models.SecurityEvent) {
	r.data[r.head] = event
	r.head = (r.head + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

func (r *eventRing) len() int {
	return r.count
}

// at returns the i-th event in insertion order, 0 being the oldest retained.
func (r *eventRing) at(i int) models.SecurityEvent {
	idx := (r.head - r.count + i + len(r.data)) % len(r.data)
	return r.data[idx]
}

// all returns the retained events oldest-first.
func (r *eventRing) all() []models.SecurityEvent {
	out := make([]models.SecurityEvent, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.at(i))
	}
	return out
}

// filter returns events matching keep, oldest-first.
func (r *eventRing) filter(keep func(models.SecurityEvent) bool) []models.SecurityEvent {
	var out []models.SecurityEvent
	for i := 0; i < r.count; i++ {
		if e := r.at(i); keep(e) {
			out = append(out, e)
		}
	}
	return out
}
