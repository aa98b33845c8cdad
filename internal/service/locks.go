package service

import (
	"sync"
)

// claimLocker 按claim id串行化"重算-写回"临界区
// 不同claim互不阻塞，同一claim上投票与清扫共用同一把锁
type claimLocker struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func newClaimLocker() *claimLocker {
	return &claimLocker{locks: make(map[uint64]*sync.Mutex)}
}

// lock 返回解锁函数，调用方defer执行
func (l *claimLocker) lock(claimID uint64) func() {
	l.mu.Lock()
	m, ok := l.locks[claimID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[claimID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
