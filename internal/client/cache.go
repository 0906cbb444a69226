package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// State состояние запроса в кеше
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	}
	return "idle"
}

// Entry снимок записи кеша
type Entry struct {
	State     State
	Data      interface{}
	Err       error
	UpdatedAt time.Time
}

// QueryCache кеширует результаты запросов по ключу.
// Одновременные Fetch одного ключа выполняют fn один раз.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*Entry
	group   singleflight.Group
	now     func() time.Time
}

func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string]*Entry), now: time.Now}
}

// Fetch отдает закешированный успешный результат или выполняет fn.
// Общий запрос идет на контексте без отмены: отмена одного вызывающего
// не обрывает ожидание остальных. Результат, пришедший после инвалидации
// ключа, в кеш не попадает.
func (c *QueryCache) Fetch(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.State == StateSuccess {
		data := e.Data
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		c.mu.Lock()
		e, ok := c.entries[key]
		if !ok {
			e = &Entry{}
			c.entries[key] = e
		}
		e.State = StateLoading
		e.Err = nil
		c.mu.Unlock()

		data, err := fn(shared)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.entries[key] != e {
			return data, err
		}
		e.UpdatedAt = c.now()
		if err != nil {
			e.State = StateError
			e.Err = err
			return nil, err
		}
		e.State = StateSuccess
		e.Data = data
		return data, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// State текущее состояние ключа; отсутствующий ключ в состоянии idle
func (c *QueryCache) State(key string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return *e
	}
	return Entry{State: StateIdle}
}

// InvalidatePrefix удаляет все ключи с префиксом, следующий Fetch пойдет в сеть
func (c *QueryCache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			c.group.Forget(key)
		}
	}
}

// fetchAs типизированная обертка над Fetch
func fetchAs[T any](ctx context.Context, c *QueryCache, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		out, err := fn(ctx)
		return out, err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}
