package core

import "sort"

// Generator makes a fresh Call instance.  The name is passed so that a
// single generator can serve several operator names (templates do
// this).
type Generator func(name string) Call

// CallFactory maps operator names to generators.  The parser uses it
// to instantiate the right Call for each "(name ...)" it reads.
// Registration is open: the standard library, templates, and host glue
// all extend the language this way without touching the core.
type CallFactory struct {
	generators map[string]Generator
	docs       map[string]string
}

// NewCallFactory makes an empty factory.
func NewCallFactory() *CallFactory {
	return &CallFactory{
		generators: make(map[string]Generator, 32),
		docs:       make(map[string]string, 32),
	}
}

// Add registers a generator under a name, replacing any previous
// registration.  Returns the factory for chaining.
func (f *CallFactory) Add(name string, g Generator) *CallFactory {
	f.generators[name] = g
	return f
}

// SetDoc attaches a short markdown description to an operator name,
// for reference tooling.
func (f *CallFactory) SetDoc(name, doc string) *CallFactory {
	f.docs[name] = doc
	return f
}

// Doc returns the operator's description, which may be empty.
func (f *CallFactory) Doc(name string) string {
	return f.docs[name]
}

// Known reports whether a name is registered.
func (f *CallFactory) Known(name string) bool {
	_, have := f.generators[name]
	return have
}

// New instantiates a call node for the given operator name.
func (f *CallFactory) New(name string) (*Node, error) {
	g, have := f.generators[name]
	if !have {
		return nil, Enoent("no call named " + name)
	}
	return NewCall(g(name)), nil
}

// Names returns all registered operator names, sorted.
func (f *CallFactory) Names() []string {
	names := make([]string, 0, len(f.generators))
	for name := range f.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
