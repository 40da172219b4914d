package callflow

import (
	"sync"

	"github.com/google/uuid"
)

type key struct {
	sessionID     uuid.UUID
	participantID uuid.UUID
}

type entry struct {
	mu   sync.Mutex
	flow *Flow
}

// Manager хранит flow участников активных звонков
type Manager struct {
	mu    sync.RWMutex
	flows map[key]*entry
}

func NewManager() *Manager {
	return &Manager{
		flows: make(map[key]*entry),
	}
}

func (m *Manager) entry(sessionID, participantID uuid.UUID, role Role) *entry {
	k := key{sessionID, participantID}

	m.mu.RLock()
	e, exists := m.flows[k]
	m.mu.RUnlock()
	if exists {
		return e
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, exists := m.flows[k]; exists {
		return e
	}
	e = &entry{flow: New(role)}
	m.flows[k] = e
	return e
}

// State текущее состояние участника (connected если flow ещё не создан)
func (m *Manager) State(sessionID, participantID uuid.UUID) State {
	m.mu.RLock()
	e, exists := m.flows[key{sessionID, participantID}]
	m.mu.RUnlock()
	if !exists {
		return StateConnected
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flow.State()
}

// With выполняет fn над flow участника. Переходы одного участника сериализуются,
// разные участники и звонки друг друга не ждут.
func (m *Manager) With(sessionID, participantID uuid.UUID, role Role, fn func(f *Flow) error) error {
	e := m.entry(sessionID, participantID, role)

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.flow)
}

// ClearSession удаляет flow всех участников звонка
func (m *Manager) ClearSession(sessionID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.flows {
		if k.sessionID == sessionID {
			delete(m.flows, k)
		}
	}
}

// Len количество отслеживаемых flow
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.flows)
}
