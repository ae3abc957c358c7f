package cart

import "sync"

// subject fans values out to registered callbacks. It only tracks
// registrations; replay and ordering are handled by the Store.
type subject[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

func (s *subject[T]) add(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *subject[T]) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *subject[T]) callbacks() []func(T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]func(T), len(s.subs))
	for i, sub := range s.subs {
		out[i] = sub.fn
	}
	return out
}
