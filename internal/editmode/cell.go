package editmode

import "sync"

// Reader exposes the current edit-mode value.
type Reader interface {
	Enabled() bool
}

// Toggler flips edit mode and returns the value it flipped to.
type Toggler interface {
	Toggle() bool
}

// Cell is a concurrency-safe edit-mode flag. The zero value is usable and off.
type Cell struct {
	mutex   sync.Mutex
	enabled bool
}

// Enabled reports the current value.
func (cell *Cell) Enabled() bool {
	cell.mutex.Lock()
	defer cell.mutex.Unlock()
	return cell.enabled
}

// Toggle flips the value and returns the new value.
func (cell *Cell) Toggle() bool {
	cell.mutex.Lock()
	defer cell.mutex.Unlock()
	cell.enabled = !cell.enabled
	return cell.enabled
}
