package corpus

import "context"

// MemoryAccessor serves a fixed poem slice. Used by tests and by the seed
// tooling before the SQL corpus is populated.
type MemoryAccessor struct {
	poems []Poem
	byID  map[string]Poem
}

func NewMemoryAccessor(poems []Poem) *MemoryAccessor {
	m := &MemoryAccessor{poems: poems, byID: make(map[string]Poem, len(poems))}
	for _, p := range poems {
		m.byID[p.ID] = p
	}
	return m
}

func (m *MemoryAccessor) All(ctx context.Context) ([]Poem, error) {
	out := make([]Poem, len(m.poems))
	copy(out, m.poems)
	return out, nil
}

func (m *MemoryAccessor) ByID(ctx context.Context, id string) (Poem, error) {
	p, ok := m.byID[id]
	if !ok {
		return Poem{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryAccessor) FilterByMaxKimariji(ctx context.Context, n int) ([]Poem, error) {
	var out []Poem
	for _, p := range m.poems {
		if p.KimarijiLen <= n {
			out = append(out, p)
		}
	}
	return out, nil
}
