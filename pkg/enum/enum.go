package enum

import (
	"fmt"
	"reflect"
	"sync"
)

var (
	mu          sync.RWMutex
	enumManager = map[reflect.Type]map[string]any{}
)

// New registers value as a member of its type and returns it, so that enum
// members can be declared as package variables.
func New[T comparable](value T) T {
	t := reflect.TypeOf(value)

	mu.Lock()
	defer mu.Unlock()

	if _, ok := enumManager[t]; !ok {
		enumManager[t] = map[string]any{}
	}

	enumManager[t][fmt.Sprint(value)] = value
	return value
}

// ToEnum returns the registered member of T whose text is s.
func ToEnum[T comparable](s string) (T, error) {
	var defaultT T
	t := reflect.TypeOf(defaultT)

	mu.RLock()
	defer mu.RUnlock()

	members, ok := enumManager[t]
	if !ok {
		return defaultT, fmt.Errorf("not found enum type %T", defaultT)
	}

	value, ok := members[s]
	if !ok {
		return defaultT, fmt.Errorf("not found value %s in enum %T", s, defaultT)
	}

	return value.(T), nil
}

// Values lists the members of T in no particular order.
func Values[T comparable]() []T {
	var defaultT T

	mu.RLock()
	defer mu.RUnlock()

	var values []T
	for _, value := range enumManager[reflect.TypeOf(defaultT)] {
		values = append(values, value.(T))
	}

	return values
}
