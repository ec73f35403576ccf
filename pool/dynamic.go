package pool

import "sync"

// NewDynamic returns a Pool that grows and shrinks as needed, backed
// directly by sync.Pool.
func NewDynamic(newFn func() interface{}) Pool {
	return &sync.Pool{New: newFn}
}
