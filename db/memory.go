package db

import (
	"context"
	"sync"
	"time"

	"sitediary/models"
)

// MemoryStorage хранилище в памяти с той же семантикой, что и Storage.
// Используется в тестах и при database.driver=memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	nextID int
	rows   map[int]models.SiteDiary
	order  []int
	now    func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		nextID: 1,
		rows:   make(map[int]models.SiteDiary),
		now:    time.Now,
	}
}

func (m *MemoryStorage) WithClock(now func() time.Time) *MemoryStorage {
	m.now = now
	return m
}

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (m *MemoryStorage) stamp() time.Time {
	return m.now().UTC().Truncate(time.Microsecond)
}

func (m *MemoryStorage) CreateDiary(ctx context.Context, d *models.SiteDiary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	normalize(d)
	d.ID = m.nextID
	m.nextID++
	now := m.stamp()
	d.CreatedAt = now
	d.UpdatedAt = now

	m.rows[d.ID] = cloneDiary(*d)
	m.order = append(m.order, d.ID)
	return nil
}

func (m *MemoryStorage) GetDiary(ctx context.Context, id int) (*models.SiteDiary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneDiary(d)
	return &out, nil
}

func (m *MemoryStorage) UpdateDiary(ctx context.Context, d *models.SiteDiary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.rows[d.ID]
	if !ok {
		return ErrNotFound
	}
	normalize(d)
	d.CreatedAt = prev.CreatedAt
	d.UpdatedAt = m.stamp()
	if d.UpdatedAt.Before(prev.UpdatedAt) {
		d.UpdatedAt = prev.UpdatedAt
	}
	m.rows[d.ID] = cloneDiary(*d)
	return nil
}

func (m *MemoryStorage) DeleteDiary(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStorage) ListDiaries(ctx context.Context, f models.Filters) ([]models.SiteDiary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.SiteDiary{}
	for _, id := range m.order {
		d := m.rows[id]
		if f.Match(d) {
			out = append(out, cloneDiary(d))
		}
	}
	models.SortDiaries(out, f.OrderBy, f.Order)
	return out, nil
}

// cloneDiary копирует срезы, чтобы вызывающий не менял хранимую запись
func cloneDiary(d models.SiteDiary) models.SiteDiary {
	d.Visitors = append(models.Visitors{}, d.Visitors...)
	d.Images = append([]string{}, d.Images...)
	return d
}
