package navguard

import (
	"sync"

	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
)

// Registry holds the SessionShell of every storefront session that currently
// has handlers. It is process-local.
type Registry struct {
	mu     sync.Mutex
	shells map[string]*SessionShell
}

func NewRegistry() *Registry {
	return &Registry{shells: make(map[string]*SessionShell)}
}

// Shell returns the shell of sessionID, creating it on first use.
func (r *Registry) Shell(sessionID string) Shell {
	r.mu.Lock()
	defer r.mu.Unlock()
	shell, ok := r.shells[sessionID]
	if !ok {
		shell = &SessionShell{registry: r, sessionID: sessionID}
		r.shells[sessionID] = shell
	}
	return shell
}

// Dispatch runs the handlers registered for attempt.Kind. The first handler
// that refuses decides; no handlers means the attempt is allowed.
func (r *Registry) Dispatch(sessionID string, attempt Attempt) Verdict {
	r.mu.Lock()
	shell, ok := r.shells[sessionID]
	r.mu.Unlock()
	if !ok {
		return Allowed
	}
	return shell.dispatch(attempt)
}

// Active reports whether sessionID has any registered handler.
func (r *Registry) Active(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.shells[sessionID]
	return ok
}

func (r *Registry) dropIfEmpty(shell *SessionShell) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.shells[shell.sessionID]; ok && current == shell && shell.empty() {
		delete(r.shells, shell.sessionID)
	}
}

// SessionShell is the storefront-side Shell of one session. The browser
// reports navigation attempts and applies the returned Verdict.
type SessionShell struct {
	registry  *Registry
	sessionID string

	mu       sync.Mutex
	nextID   int
	handlers []registration
}

type registration struct {
	id      int
	kind    enums.NavigationKind
	handler Handler
}

func (s *SessionShell) OnBeforeLeave(kind enums.NavigationKind, handler Handler) Disposable {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.handlers = append(s.handlers, registration{id: id, kind: kind, handler: handler})
	s.mu.Unlock()

	var once sync.Once
	return disposeFunc(func() {
		once.Do(func() {
			s.remove(id)
			if s.registry != nil {
				s.registry.dropIfEmpty(s)
			}
		})
	})
}

func (s *SessionShell) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, reg := range s.handlers {
		if reg.id == id {
			s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
			return
		}
	}
}

func (s *SessionShell) empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers) == 0
}

func (s *SessionShell) dispatch(attempt Attempt) Verdict {
	s.mu.Lock()
	matching := make([]Handler, 0, len(s.handlers))
	for _, reg := range s.handlers {
		if reg.kind == attempt.Kind && reg.handler != nil {
			matching = append(matching, reg.handler)
		}
	}
	s.mu.Unlock()

	for _, handler := range matching {
		if verdict := handler(attempt); !verdict.Allow {
			return verdict
		}
	}
	return Allowed
}
