package types

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/goccy/go-json"
)

// Set is an unordered collection of unique comparable items; Array returns them sorted
type Set[T cmp.Ordered] struct {
	items map[T]struct{}
}

func NewSet[T cmp.Ordered](values ...T) *Set[T] {
	set := &Set[T]{items: make(map[T]struct{})}
	set.Insert(values...)
	return set
}

func (s *Set[T]) Insert(values ...T) {
	if s.items == nil {
		s.items = make(map[T]struct{})
	}
	for _, value := range values {
		s.items[value] = struct{}{}
	}
}

func (s *Set[T]) Exists(value T) bool {
	if s == nil {
		return false
	}
	_, found := s.items[value]
	return found
}

func (s *Set[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

func (s *Set[T]) Array() []T {
	if s == nil {
		return nil
	}
	values := make([]T, 0, len(s.items))
	for value := range s.items {
		values = append(values, value)
	}
	slices.Sort(values)
	return values
}

func (s *Set[T]) String() string {
	return fmt.Sprintf("%v", s.Array())
}

func (s *Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Array())
}

func (s *Set[T]) UnmarshalJSON(data []byte) error {
	var values []T
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}

	s.items = make(map[T]struct{}, len(values))
	s.Insert(values...)
	return nil
}
