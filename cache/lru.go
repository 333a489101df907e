package cache

import (
	"container/list"

	"git.sr.ht/~bigdata/bdview/block"
)

// lru is the "soft" lifetime tier from the design notes: a bounded,
// strong-reference-holding secondary index over keys whose payload has
// become valid. Go has no weak/soft references, so eviction from this
// structure is the actual reclamation signal the cache acts on, rather
// than a hint to a garbage collector.
type lru struct {
	capacity int
	ll       *list.List
	index    map[block.Key]*list.Element
}

func newLRU(capacity int) *lru {
	if capacity < 1 {
		capacity = 1
	}
	return &lru{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[block.Key]*list.Element),
	}
}

// touch marks key as most-recently-used, inserting it if new, and
// returns the keys evicted to stay within capacity (oldest first). The
// caller is responsible for deciding whether an evicted key may actually
// be purged from the residency table (it may still be pinned).
func (l *lru) touch(key block.Key) []block.Key {
	if elem, ok := l.index[key]; ok {
		l.ll.MoveToFront(elem)
		return nil
	}
	elem := l.ll.PushFront(key)
	l.index[key] = elem

	var evicted []block.Key
	for l.ll.Len() > l.capacity {
		back := l.ll.Back()
		if back == nil {
			break
		}
		k := back.Value.(block.Key)
		l.ll.Remove(back)
		delete(l.index, k)
		evicted = append(evicted, k)
	}
	return evicted
}

// remove drops key from the LRU without regard for capacity.
func (l *lru) remove(key block.Key) {
	if elem, ok := l.index[key]; ok {
		l.ll.Remove(elem)
		delete(l.index, key)
	}
}

func (l *lru) len() int {
	return l.ll.Len()
}
