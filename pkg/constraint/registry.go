package constraint

import (
	"fmt"
	"slices"
	"sync"

	"github.com/openfroyo/brepcore/pkg/engine"
)

// Factory creates an empty constraint of one class.
type Factory func() Interface

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

func init() {
	Register(func() Interface { return NewPositionConstraint("") },
		ClassPositionConstraint, LegacyClassPositionConstraint)
}

// Register makes factory available under every class name.
func Register(factory Factory, classNames ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, name := range classNames {
		registry[name] = factory
	}
}

// New creates an empty constraint for a registered class name.
func New(class string) (Interface, error) {
	registryMu.RLock()
	factory, ok := registry[class]
	registryMu.RUnlock()
	if !ok {
		return nil, engine.NotFound("constraint class", class)
	}
	return factory(), nil
}

// Classes returns the registered class names in sorted order.
func Classes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// FromData rebuilds a persisted constraint of any registered class.
func FromData(data *Data, opts LoadOptions) (Interface, error) {
	if data == nil {
		return nil, fmt.Errorf("no constraint data")
	}
	c, err := New(data.Class)
	if err != nil {
		return nil, err
	}
	if err := c.Load(data, opts); err != nil {
		return nil, err
	}
	return c, nil
}

// FromInit builds a constraint of data.Class (PositionConstraint when
// empty) and initializes it.
func FromInit(data InitData, states StateMap) (Interface, error) {
	class := data.Class
	if class == "" {
		class = ClassPositionConstraint
	}
	c, err := New(class)
	if err != nil {
		return nil, err
	}
	if err := c.Init(data, states); err != nil {
		return nil, err
	}
	return c, nil
}
