package kernel

// Queue is a bounded queue of fixed-size messages, each carrying a
// priority, delivered highest-priority-first and FIFO within a
// priority. A send that finds a receiver already blocked hands the
// message to it directly, without a copy through storage; a blocked
// sender's message is copied into storage once a receive frees a slot.
type Queue struct {
	k    *Kernel
	name string

	msgSize  int
	capacity int
	storage  []byte // capacity*msgSize bytes, owned or caller-provided
	prios    []uint8

	head, length int // ring cursor and current occupancy

	sendWaiters waitList
	recvWaiters waitList
}

// QueueAttr configures a new Queue.
type QueueAttr struct {
	Name     string
	MsgSize  int
	Capacity int
	// Storage, if non-nil, must be exactly MsgSize*Capacity bytes. If
	// nil, the queue allocates and owns its own buffer.
	Storage []byte
}

// NewQueue creates a queue per attr.
func (k *Kernel) NewQueue(attr QueueAttr) (*Queue, Result) {
	if attr.MsgSize <= 0 || attr.Capacity <= 0 {
		return nil, ErrInval
	}
	need := attr.MsgSize * attr.Capacity
	storage := attr.Storage
	if storage == nil {
		storage = make([]byte, need)
	} else if len(storage) != need {
		return nil, ErrInval
	}
	return &Queue{
		k:        k,
		name:     attr.Name,
		msgSize:  attr.MsgSize,
		capacity: attr.Capacity,
		storage:  storage,
		prios:    make([]uint8, attr.Capacity),
	}, OK
}

func (q *Queue) Name() string {
	if q.name == "" {
		return "-"
	}
	return q.name
}

func (q *Queue) MsgSize() int  { return q.msgSize }
func (q *Queue) Capacity() int { return q.capacity }

// Len returns the current occupied message count.
func (q *Queue) Len() int {
	q.k.mu.Lock()
	defer q.k.mu.Unlock()
	return q.length
}

func (q *Queue) slot(i int) []byte {
	idx := (q.head + i) % q.capacity
	return q.storage[idx*q.msgSize : (idx+1)*q.msgSize]
}

// trySendLocked hands msg directly to a blocked receiver if one is
// waiting, or else enqueues it in storage if there's room. Must be
// called with k.mu held.
func (q *Queue) trySendLocked(msg []byte, prio uint8) bool {
	if r := q.recvWaiters.popHead(); r != nil {
		copy(r.recvBuf, msg)
		r.recvLen = len(msg)
		r.recvPrio = prio
		q.k.unparkLocked(r, WakeNormal, 0)
		return true
	}
	if q.length >= q.capacity {
		return false
	}
	dst := q.slot(q.length)
	n := copy(dst, msg)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	q.insertByPriorityLocked(prio)
	return true
}

// insertByPriorityLocked is called immediately after a message has
// been written to the next free ring slot (index q.length before this
// call); it walks backward, swapping the new message into place so the
// occupied region stays sorted by priority (desc) then FIFO, without a
// separate index structure.
func (q *Queue) insertByPriorityLocked(prio uint8) {
	i := q.length
	q.length++
	for i > 0 {
		prevIdx := (q.head + i - 1) % q.capacity
		if q.prios[prevIdx] >= prio {
			break
		}
		q.swapSlots(i-1, i)
		i--
	}
	idx := (q.head + i) % q.capacity
	q.prios[idx] = prio
}

func (q *Queue) swapSlots(a, b int) {
	ia := (q.head + a) % q.capacity
	ib := (q.head + b) % q.capacity
	sa := q.storage[ia*q.msgSize : (ia+1)*q.msgSize]
	sb := q.storage[ib*q.msgSize : (ib+1)*q.msgSize]
	for i := range sa {
		sa[i], sb[i] = sb[i], sa[i]
	}
	q.prios[ia], q.prios[ib] = q.prios[ib], q.prios[ia]
}

// Send blocks until there is room.
func (q *Queue) Send(msg []byte, prio uint8) Result {
	_, res := q.send(msg, prio, false, 0, false)
	return res
}

// TrySend returns ErrWouldBlock instead of blocking when full.
func (q *Queue) TrySend(msg []byte, prio uint8) Result {
	_, res := q.send(msg, prio, true, 0, false)
	return res
}

// TimedSend blocks for at most ticks ticks.
func (q *Queue) TimedSend(msg []byte, prio uint8, ticks uint64) Result {
	_, res := q.send(msg, prio, false, ticks, true)
	return res
}

func (q *Queue) send(msg []byte, prio uint8, try bool, ticks uint64, timed bool) (uint32, Result) {
	k := q.k
	if len(msg) > q.msgSize {
		return 0, ErrMsgSize
	}
	if res := k.requirePermittedContext(); res != OK {
		return 0, res
	}
	k.mu.Lock()
	t := k.current
	if k.checkCancelLocked(t) {
		k.mu.Unlock()
		return 0, ErrIntr
	}
	if q.trySendLocked(msg, prio) {
		k.maybeDispatchLocked()
		return 0, OK
	}
	if try {
		k.mu.Unlock()
		return 0, ErrWouldBlock
	}
	t.sendMsg = msg
	t.sendPrio = prio
	var deadline uint64
	if timed {
		deadline = k.clock.ticks + ticks
	}
	reason := k.park(&q.sendWaiters, deadline, timed)
	switch reason {
	case WakeTimeout:
		return 0, ErrTimedOut
	case WakeInterrupted:
		return 0, ErrIntr
	default:
		return 0, OK
	}
}

// Receive blocks until a message is available.
func (q *Queue) Receive(buf []byte) (int, uint8, Result) {
	return q.receive(buf, false, 0, false)
}

// TryReceive returns ErrWouldBlock instead of blocking when empty.
func (q *Queue) TryReceive(buf []byte) (int, uint8, Result) {
	return q.receive(buf, true, 0, false)
}

// TimedReceive blocks for at most ticks ticks.
func (q *Queue) TimedReceive(buf []byte, ticks uint64) (int, uint8, Result) {
	return q.receive(buf, false, ticks, true)
}

func (q *Queue) receive(buf []byte, try bool, ticks uint64, timed bool) (int, uint8, Result) {
	k := q.k
	if res := k.requirePermittedContext(); res != OK {
		return 0, 0, res
	}
	k.mu.Lock()
	t := k.current
	if k.checkCancelLocked(t) {
		k.mu.Unlock()
		return 0, 0, ErrIntr
	}
	if n, prio, ok := q.tryReceiveLocked(buf); ok {
		k.maybeDispatchLocked()
		return n, prio, OK
	}
	if try {
		k.mu.Unlock()
		return 0, 0, ErrWouldBlock
	}
	t.recvBuf = buf
	var deadline uint64
	if timed {
		deadline = k.clock.ticks + ticks
	}
	reason := k.park(&q.recvWaiters, deadline, timed)
	switch reason {
	case WakeTimeout:
		return 0, 0, ErrTimedOut
	case WakeInterrupted:
		return 0, 0, ErrIntr
	default:
		return t.recvLen, t.recvPrio, OK
	}
}

// tryReceiveLocked pops the highest-priority-oldest message, if any,
// waking a blocked sender if one is present (its message is written
// directly into the freed slot). Must be called with k.mu held.
func (q *Queue) tryReceiveLocked(buf []byte) (int, uint8, bool) {
	if q.length == 0 {
		return 0, 0, false
	}
	src := q.slot(0)
	n := copy(buf, src)
	prio := q.prios[q.head%q.capacity]
	q.head = (q.head + 1) % q.capacity
	q.length--

	if s := q.sendWaiters.popHead(); s != nil {
		dst := q.slot(q.length)
		nn := copy(dst, s.sendMsg)
		for i := nn; i < len(dst); i++ {
			dst[i] = 0
		}
		q.insertByPriorityLocked(s.sendPrio)
		q.k.unparkLocked(s, WakeNormal, 0)
	}
	return n, prio, true
}

// Destroy releases q, refusing while it holds messages or has waiters.
func (q *Queue) Destroy() Result {
	q.k.mu.Lock()
	defer q.k.mu.Unlock()
	if q.length != 0 || !q.sendWaiters.empty() || !q.recvWaiters.empty() {
		return ErrBusy
	}
	return OK
}

// Reset empties the queue, wakes every blocked sender with ErrIntr, and
// leaves blocked receivers parked on the receive wait list, unwoken.
func (q *Queue) Reset() Result {
	k := q.k
	k.mu.Lock()
	q.head, q.length = 0, 0
	woken := q.sendWaiters.drain()
	for _, s := range woken {
		k.unparkLocked(s, WakeInterrupted, 0)
	}
	k.maybeDispatchLocked()
	return OK
}
