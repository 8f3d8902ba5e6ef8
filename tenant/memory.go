package tenant

import (
	"context"
	"sync"
)

// Memory 内存租户存储
//
// 用于测试与单进程示例。并发安全。
type Memory struct {
	mu     sync.RWMutex
	nextID uint
	byID   map[uint]Tenant

	// CreateHook 在写入前调用，可注入故障以验证补偿动作；
	// 返回非 nil 时创建失败且不产生任何写入。仅测试使用。
	CreateHook func(t *Tenant) error
}

// NewMemory 创建内存租户存储
func NewMemory() *Memory {
	return &Memory{
		nextID: 1,
		byID:   make(map[uint]Tenant),
	}
}

func (m *Memory) GetAll(ctx context.Context) ([]Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Tenant, 0, len(m.byID))
	for _, t := range m.byID {
		out = append(out, t)
	}
	return out, nil
}

func (m *Memory) GetByID(ctx context.Context, id uint) (*Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *Memory) GetByName(ctx context.Context, name string) (*Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.byID {
		if t.Name == name {
			copied := t
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListByEntryName(ctx context.Context, entryName string) ([]Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Tenant
	for _, t := range m.byID {
		if t.DatabaseInfoName == entryName {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) Create(ctx context.Context, t *Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateHook != nil {
		if err := m.CreateHook(t); err != nil {
			return err
		}
	}

	for _, existing := range m.byID {
		if existing.Name == t.Name {
			return ErrDuplicateName
		}
	}

	t.ID = m.nextID
	m.nextID++
	m.byID[t.ID] = *t
	return nil
}

func (m *Memory) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}
