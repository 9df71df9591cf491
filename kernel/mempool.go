package kernel

import "encoding/binary"

// Pool is a fixed-block memory pool backed by an intrusive singly-linked
// free list threaded directly through the free blocks' own bytes — no
// separate bookkeeping array, so the pool's memory overhead is zero
// beyond the caller-sized buffer itself.
type Pool struct {
	k    *Kernel
	name string

	blockSize  int
	blockCount int
	storage    []byte

	freeHead int // index of the first free block, or -1
	freeLen  int

	waiters waitList
}

// blockHeaderBytes is the width of the free-list "next index" encoded
// into the first bytes of every free block. int32 keeps a pool usable
// down to 4-byte blocks while comfortably indexing any pool this core
// is sized for.
const blockHeaderBytes = 4

// PoolAttr configures a new Pool.
type PoolAttr struct {
	Name       string
	BlockSize  int
	BlockCount int
	// Storage, if non-nil, must be exactly BlockSize*BlockCount bytes
	// and is used as-is. If nil, the pool allocates and owns its own
	// buffer.
	Storage []byte
}

// NewPool creates a pool per attr.
func (k *Kernel) NewPool(attr PoolAttr) (*Pool, Result) {
	if attr.BlockSize < blockHeaderBytes || attr.BlockCount <= 0 {
		return nil, ErrInval
	}
	need := attr.BlockSize * attr.BlockCount
	storage := attr.Storage
	if storage == nil {
		storage = make([]byte, need)
	} else if len(storage) != need {
		return nil, ErrInval
	}
	p := &Pool{
		k:          k,
		name:       attr.Name,
		blockSize:  attr.BlockSize,
		blockCount: attr.BlockCount,
		storage:    storage,
	}
	for i := 0; i < attr.BlockCount; i++ {
		next := i + 1
		if next == attr.BlockCount {
			next = -1
		}
		p.setNext(i, next)
	}
	p.freeHead = 0
	p.freeLen = attr.BlockCount
	return p, OK
}

func (p *Pool) Name() string {
	if p.name == "" {
		return "-"
	}
	return p.name
}

// BlockSize returns the fixed size of each block, in bytes.
func (p *Pool) BlockSize() int { return p.blockSize }

// Capacity returns the total number of blocks.
func (p *Pool) Capacity() int { return p.blockCount }

// Available returns the number of blocks currently on the free list.
func (p *Pool) Available() int {
	p.k.mu.Lock()
	defer p.k.mu.Unlock()
	return p.freeLen
}

func (p *Pool) block(i int) []byte {
	return p.storage[i*p.blockSize : (i+1)*p.blockSize]
}

func (p *Pool) setNext(i, next int) {
	binary.LittleEndian.PutUint32(p.block(i)[:blockHeaderBytes], uint32(int32(next)))
}

func (p *Pool) getNext(i int) int {
	return int(int32(binary.LittleEndian.Uint32(p.block(i)[:blockHeaderBytes])))
}

// Alloc blocks until a block is free.
func (p *Pool) Alloc() ([]byte, Result) {
	return p.acquire(false, 0, false)
}

// TryAlloc returns ErrWouldBlock instead of blocking when the pool is
// empty.
func (p *Pool) TryAlloc() ([]byte, Result) {
	return p.acquire(true, 0, false)
}

// TimedAlloc blocks for at most ticks ticks.
func (p *Pool) TimedAlloc(ticks uint64) ([]byte, Result) {
	return p.acquire(false, ticks, true)
}

func (p *Pool) acquire(try bool, ticks uint64, timed bool) ([]byte, Result) {
	k := p.k
	if res := k.requirePermittedContext(); res != OK {
		return nil, res
	}
	k.mu.Lock()
	t := k.current
	if k.checkCancelLocked(t) {
		k.mu.Unlock()
		return nil, ErrIntr
	}
	if p.freeHead >= 0 {
		i := p.freeHead
		p.freeHead = p.getNext(i)
		p.freeLen--
		k.mu.Unlock()
		return p.block(i), OK
	}
	if try {
		k.mu.Unlock()
		return nil, ErrWouldBlock
	}
	var deadline uint64
	if timed {
		deadline = k.clock.ticks + ticks
	}
	reason := k.park(&p.waiters, deadline, timed)
	switch reason {
	case WakeTimeout:
		return nil, ErrTimedOut
	case WakeInterrupted:
		return nil, ErrIntr
	default:
		// The waking Free call already popped a block for us and
		// stashed it as our wake payload — an index, not a pointer,
		// since wakePayload is a uint32.
		return p.block(int(t.wakePayload)), OK
	}
}

// Free returns blk, previously returned by Alloc/TryAlloc/TimedAlloc,
// to the pool. blk must be the exact slice returned by an allocation
// call on this pool; passing any other slice is a programming error.
func (p *Pool) Free(blk []byte) Result {
	k := p.k
	i := p.indexOf(blk)
	if i < 0 {
		return ErrInval
	}
	k.mu.Lock()
	if w := p.waiters.popHead(); w != nil {
		// Hand the block directly to the waiter instead of pushing it
		// onto the free list first, avoiding a spurious free/alloc
		// round-trip and keeping the transfer atomic under the
		// scheduler lock.
		k.unparkLocked(w, WakeNormal, uint32(i))
		k.maybeDispatchLocked()
		return OK
	}
	p.setNext(i, p.freeHead)
	p.freeHead = i
	p.freeLen++
	k.mu.Unlock()
	return OK
}

// Destroy releases p, refusing while any block is still allocated or
// any thread is waiting on it.
func (p *Pool) Destroy() Result {
	p.k.mu.Lock()
	defer p.k.mu.Unlock()
	if p.freeLen != p.blockCount || !p.waiters.empty() {
		return ErrBusy
	}
	return OK
}

// indexOf returns the block index blk was allocated at, or -1 if blk
// does not share storage with p (a caller error). A linear scan over
// block starts is deliberate: pool block counts target microcontroller
// scales, not an arena large enough to justify pointer arithmetic.
func (p *Pool) indexOf(blk []byte) int {
	if len(blk) != p.blockSize {
		return -1
	}
	for i := 0; i < p.blockCount; i++ {
		if &p.storage[i*p.blockSize] == &blk[0] {
			return i
		}
	}
	return -1
}
