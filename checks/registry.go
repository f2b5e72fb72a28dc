// Package checks provides a global registry of named predicates and isa
// targets. Declarative rule definitions loaded from files cannot carry Go
// closures, so they reference registered checks by name instead; the registry
// is the binding point between file content and Go code.
package checks

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/nextpkg/vrule/slogs"
)

// Predicate is a boolean gate invoked with the value under validation.
// Predicates are trusted to be pure and side-effect free.
type Predicate func(value any) bool

var (
	// globalRegistry holds the singleton registry instance
	globalRegistry *registry
	// globalRegistryOnce ensures the registry is initialized only once
	globalRegistryOnce sync.Once
)

type registry struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
	isaTargets map[string]reflect.Type
}

func getRegistry() *registry {
	globalRegistryOnce.Do(func() {
		globalRegistry = &registry{
			predicates: make(map[string]Predicate),
			isaTargets: make(map[string]reflect.Type),
		}
	})
	return globalRegistry
}

// Register binds a predicate to a name. Definitions refer to it via the
// "callback" and "callbacks" keys. Registering the same name twice panics to
// surface wiring conflicts at startup rather than at validation time.
func Register(name string, fn Predicate) {
	if name == "" || fn == nil {
		panic("checks: Register requires a non-empty name and a non-nil predicate")
	}

	r := getRegistry()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.predicates[name]; exists {
		panic(fmt.Sprintf("check is registered, name=%s", name))
	}

	r.predicates[name] = fn
	slogs.Debug("Check registered", "name", name)
}

// Lookup returns the predicate registered under name.
func Lookup(name string) (Predicate, bool) {
	r := getRegistry()
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.predicates[name]
	return fn, ok
}

// Unregister removes a named predicate. It exists mainly for tests.
func Unregister(name string) {
	r := getRegistry()
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.predicates, name)
}

// List returns the names of all registered predicates in sorted order.
func List() []string {
	r := getRegistry()
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.predicates))
	for name := range r.predicates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterIsa binds a type to a name so file-loaded definitions can express
// "isa" constraints. The prototype may be a value of the target type, a
// pointer to it, or a pointer to an interface, e.g. (*io.Reader)(nil).
// Registering the same name twice panics.
func RegisterIsa(name string, prototype any) {
	target := TargetType(prototype)
	if name == "" || target == nil {
		panic("checks: RegisterIsa requires a non-empty name and a typed prototype")
	}

	r := getRegistry()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.isaTargets[name]; exists {
		panic(fmt.Sprintf("isa target is registered, name=%s", name))
	}

	r.isaTargets[name] = target
	slogs.Debug("Isa target registered", "name", name, "type", target.String())
}

// LookupIsa returns the type registered under name.
func LookupIsa(name string) (reflect.Type, bool) {
	r := getRegistry()
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.isaTargets[name]
	return t, ok
}

// UnregisterIsa removes a named isa target. It exists mainly for tests.
func UnregisterIsa(name string) {
	r := getRegistry()
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.isaTargets, name)
}

// TargetType resolves an isa prototype into the type instances are matched
// against. A pointer to an interface yields the interface type; any other
// non-nil value yields its own type. Returns nil when the prototype carries
// no type information.
func TargetType(prototype any) reflect.Type {
	if t, ok := prototype.(reflect.Type); ok {
		return t
	}

	t := reflect.TypeOf(prototype)
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		return t.Elem()
	}
	return t
}

// Satisfies reports whether a value is an instance of the target type:
// implementing it when the target is an interface, or being of the identical
// (possibly pointed-to) type otherwise.
func Satisfies(value any, target reflect.Type) bool {
	if value == nil || target == nil {
		return false
	}

	vt := reflect.TypeOf(value)
	if target.Kind() == reflect.Interface {
		return vt.Implements(target)
	}
	if vt == target {
		return true
	}
	// A pointer to the target type still counts as an instance of it.
	return vt.Kind() == reflect.Ptr && vt.Elem() == target
}
