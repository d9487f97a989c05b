package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dhamidi/jolt/classfile"
	"github.com/tliron/commonlog"
)

var (
	ErrClassNotFound    = errors.New("class not found")
	ErrInvalidClassName = errors.New("invalid class name")
)

var log = commonlog.GetLogger("jolt.loader")

type Option func(*Registry)

// WithSource sets where Find looks for classes that were never defined.
func WithSource(src Source) Option {
	return func(r *Registry) {
		r.source = src
	}
}

// WithDecodeOptions passes options through to classfile.Parse.
func WithDecodeOptions(opts ...classfile.Option) Option {
	return func(r *Registry) {
		r.decodeOpts = append(r.decodeOpts, opts...)
	}
}

// Registry maps class names to decoded classes. A name is bound once; later
// definitions of the same name return the first value.
type Registry struct {
	mu         sync.Mutex
	classes    map[string]*classfile.ClassFile
	source     Source
	decodeOpts []classfile.Option
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{classes: make(map[string]*classfile.ClassFile)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClassNameFromPath returns the final path segment without its .class
// suffix: "a/b/Main.class" becomes "Main".
func ClassNameFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".class")
}

// Define decodes data and binds it under the name derived from path. If the
// name is already bound the existing class is returned and data is not
// decoded. A failed decode binds nothing.
func (r *Registry) Define(path string, data []byte) (*classfile.ClassFile, error) {
	return r.define(ClassNameFromPath(path), path, data)
}

func (r *Registry) define(name, path string, data []byte) (*classfile.ClassFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cf, ok := r.classes[name]; ok {
		log.Debugf("class %s already defined, ignoring %s", name, path)
		return cf, nil
	}

	cf, err := classfile.Parse(data, r.decodeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to define %s from %s: %w", name, path, err)
	}
	r.classes[name] = cf
	log.Infof("defined class %s from %s", name, path)
	return cf, nil
}

// Find returns the class bound to name, asking the registry's Source when
// it is not bound yet. Located classes are bound under the requested name,
// not the file's base name, so Find("com/example/Util") followed by
// Define("com/example/Util.class", ...) binds the class under both
// "com/example/Util" and "Util".
func (r *Registry) Find(name string) (*classfile.ClassFile, error) {
	if cf, ok := r.Lookup(name); ok {
		log.Debugf("cache hit for %s", name)
		return cf, nil
	}
	if r.source == nil {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}

	path, data, err := r.source.Locate(name)
	if err != nil {
		if errors.Is(err, ErrClassNotFound) {
			log.Debugf("source has no class %s", name)
		}
		return nil, err
	}
	return r.define(name, path, data)
}

func (r *Registry) Lookup(name string) (*classfile.ClassFile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cf, ok := r.classes[name]
	return cf, ok
}

// Names returns the bound class names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	r.mu.Unlock()

	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.classes)
}
