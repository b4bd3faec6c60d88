package core

import "fmt"

// IDPool hands out numeric ids for renderer-owned resources. Pools are
// instance-scoped so independent renderers never share an id space.
type IDPool struct {
	owners []interface{}
}

func NewIDPool() *IDPool {
	return &IDPool{
		owners: make([]interface{}, 0, 100),
	}
}

// Acquire returns the first free id, growing the pool when none is free.
func (p *IDPool) Acquire(owner interface{}) uint32 {
	for i := range p.owners {
		// Existing free spot. Take it.
		if p.owners[i] == nil {
			p.owners[i] = owner
			return uint32(i)
		}
	}
	p.owners = append(p.owners, owner)
	return uint32(len(p.owners) - 1)
}

// Release zeroes out the entry, making the id available again.
func (p *IDPool) Release(id uint32) error {
	if int(id) >= len(p.owners) {
		return fmt.Errorf("id pool release: id '%d' out of range (max=%d), nothing was done", id, len(p.owners))
	}
	p.owners[id] = nil
	return nil
}
