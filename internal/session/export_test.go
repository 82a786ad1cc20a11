package session

import "github.com/dgallion1/figsync/internal/scene"

// Document exposes the live tree to tests in this package.
func (s *Session) Document() *scene.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}
