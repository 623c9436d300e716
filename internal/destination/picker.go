// Package destination provides the storage-location picker the editor reads its
// target graph from.
package destination

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"ttlform/internal/editor"
)

// DefaultValue is the destination preselected for imported content.
const DefaultValue = "mntl:publ/imported"

// AcceptedType is one destination namespace the picker offers.
type AcceptedType struct {
	Value       string `yaml:"value"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

// DefaultAcceptedTypes returns the stock namespaces. "{identity}" in a Value is
// expanded with ExpandLabel.
func DefaultAcceptedTypes() []AcceptedType {
	return []AcceptedType{
		{Value: "mntl:open", Label: "Open", Description: "mntl:open/{identity}"},
		{Value: "mntl:publ", Label: "Public", Description: "mntl:publ/..."},
	}
}

// Picker holds the selected destination and notifies subscribers of changes.
type Picker struct {
	mu        sync.Mutex
	value     string
	accepted  []AcceptedType
	listeners map[int]func(string)
	nextID    int
}

// NewPicker creates a picker. A nil types slice means DefaultAcceptedTypes.
func NewPicker(value string, types []AcceptedType) *Picker {
	if len(types) == 0 {
		types = DefaultAcceptedTypes()
	}
	return &Picker{
		value:     value,
		accepted:  append([]AcceptedType(nil), types...),
		listeners: make(map[int]func(string)),
	}
}

// Value returns the selected destination.
func (p *Picker) Value() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// GetValue implements editor.DestinationPicker.
func (p *Picker) GetValue() string {
	return p.Value()
}

// SetValue changes the destination and notifies subscribers when it differs.
func (p *Picker) SetValue(value string) {
	p.mu.Lock()
	if value == p.value {
		p.mu.Unlock()
		return
	}
	p.value = value
	fns := p.snapshotListeners()
	p.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// OnChange subscribes fn to value changes. Listeners run without the picker lock held.
func (p *Picker) OnChange(fn func(string)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *Picker) snapshotListeners() []func(string) {
	ids := make([]int, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	fns := make([]func(string), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.listeners[id])
	}
	return fns
}

// AcceptedTypes returns a copy of the offered namespaces.
func (p *Picker) AcceptedTypes() []AcceptedType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]AcceptedType(nil), p.accepted...)
}

// SetAcceptedTypes replaces the offered namespaces. An empty list is ignored.
func (p *Picker) SetAcceptedTypes(types []AcceptedType) {
	if len(types) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accepted = append([]AcceptedType(nil), types...)
}

// Accepts reports whether value lies under one of the accepted namespaces.
func (p *Picker) Accepts(value string) bool {
	value = strings.TrimSpace(value)
	for _, t := range p.AcceptedTypes() {
		if value == t.Value || strings.HasPrefix(value, t.Value+"/") {
			return true
		}
	}
	return false
}

// Validate returns an error describing why value is not an acceptable destination.
func (p *Picker) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(editor.ReasonNoDestination)
	}
	if !p.Accepts(value) {
		return fmt.Errorf("destination %q is not under an accepted namespace", value)
	}
	return nil
}

// ExpandLabel substitutes identity into a type description.
func ExpandLabel(t AcceptedType, identity string) string {
	if identity == "" {
		identity = "you"
	}
	return strings.ReplaceAll(t.Description, "{identity}", identity)
}

// StaticLoader returns a loader that always yields p.
func StaticLoader(p *Picker) editor.PickerLoader {
	return func(ctx context.Context) (editor.DestinationPicker, error) {
		if err := ctx.Err(); err != nil {
			return nil, &editor.ConfigurationError{Component: "destination picker", Err: err}
		}
		if p == nil {
			return nil, &editor.ConfigurationError{Component: "destination picker", Err: errors.New("not registered")}
		}
		return p, nil
	}
}
