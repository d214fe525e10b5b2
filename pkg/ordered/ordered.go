// Package ordered provides an insertion-ordered sequence keyed by entity id.
package ordered

// List keeps values in a stable order and indexes them by key. A key appears
// at most once. List is not safe for concurrent use; callers guard it.
type List[K comparable, V any] struct {
	keys  []K
	items map[K]V
}

func New[K comparable, V any]() *List[K, V] {
	return &List[K, V]{
		keys:  make([]K, 0),
		items: make(map[K]V),
	}
}

// Append adds v at the end. It reports false and leaves the list untouched
// when key is already present.
func (l *List[K, V]) Append(key K, v V) bool {
	if _, ok := l.items[key]; ok {
		return false
	}
	l.keys = append(l.keys, key)
	l.items[key] = v
	return true
}

// Prepend adds v at the front. It reports false when key is already present.
func (l *List[K, V]) Prepend(key K, v V) bool {
	if _, ok := l.items[key]; ok {
		return false
	}
	l.keys = append([]K{key}, l.keys...)
	l.items[key] = v
	return true
}

// Put replaces the value stored under key in place, or prepends it when the
// key is new.
func (l *List[K, V]) Put(key K, v V) {
	if _, ok := l.items[key]; ok {
		l.items[key] = v
		return
	}
	l.Prepend(key, v)
}

// Remove deletes key. Removing a missing key is a no-op that reports false.
func (l *List[K, V]) Remove(key K) bool {
	if _, ok := l.items[key]; !ok {
		return false
	}
	delete(l.items, key)
	for i, k := range l.keys {
		if k == key {
			l.keys = append(l.keys[:i], l.keys[i+1:]...)
			break
		}
	}
	return true
}

func (l *List[K, V]) Get(key K) (V, bool) {
	v, ok := l.items[key]
	return v, ok
}

func (l *List[K, V]) Has(key K) bool {
	_, ok := l.items[key]
	return ok
}

func (l *List[K, V]) Len() int {
	return len(l.keys)
}

// Values returns a copy of the values in order.
func (l *List[K, V]) Values() []V {
	result := make([]V, len(l.keys))
	for i, k := range l.keys {
		result[i] = l.items[k]
	}
	return result
}

// Update rewrites every value in order through fn.
func (l *List[K, V]) Update(fn func(K, V) V) {
	for _, k := range l.keys {
		l.items[k] = fn(k, l.items[k])
	}
}

func (l *List[K, V]) Clear() {
	l.keys = l.keys[:0]
	l.items = make(map[K]V)
}
