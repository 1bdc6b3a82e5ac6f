// Package database is the graph store: it owns every imported object and
// provides ID and technical-name lookup. It is populated once at import
// time and read-only during traversal.
package database

import (
	"fmt"

	"github.com/studiobgc/dialogue-editor/pkg/domain"
)

// Package is a named group of objects toggled in and out of visibility as
// a unit. Default packages are indexed as soon as they are added.
type Package struct {
	Name        string
	Description string
	Default     bool

	objects []domain.Object
}

// Objects returns the package contents in import order.
func (p *Package) Objects() []domain.Object {
	return p.objects
}

// Database indexes objects by ID and technical name. Lookups against
// unloaded packages miss: only loaded packages contribute to the index.
type Database struct {
	packages     map[string]*Package
	packageOrder []string
	loaded       map[string]bool

	objects map[domain.ID]domain.Object
	byName  map[string]domain.ID

	characters     map[domain.ID]*domain.Character
	characterOrder []domain.ID
}

// New creates an empty database.
func New() *Database {
	return &Database{
		packages:   make(map[string]*Package),
		loaded:     make(map[string]bool),
		objects:    make(map[domain.ID]domain.Object),
		byName:     make(map[string]domain.ID),
		characters: make(map[domain.ID]*domain.Character),
	}
}

// AddPackage registers a package and its objects. Registering does not make
// the objects visible; call LoadPackage (or LoadDefaultPackages).
func (d *Database) AddPackage(pkg *Package, objects []domain.Object) error {
	if pkg.Name == "" {
		return fmt.Errorf("add package: empty name")
	}
	if _, exists := d.packages[pkg.Name]; exists {
		return fmt.Errorf("add package: %q already registered", pkg.Name)
	}
	pkg.objects = objects
	d.packages[pkg.Name] = pkg
	d.packageOrder = append(d.packageOrder, pkg.Name)
	return nil
}

// AddCharacter registers a speaker. Characters are global, not packaged.
func (d *Database) AddCharacter(c *domain.Character) {
	if _, exists := d.characters[c.ID]; !exists {
		d.characterOrder = append(d.characterOrder, c.ID)
	}
	d.characters[c.ID] = c
	d.objects[c.ID] = c
	if c.TechnicalName != "" {
		d.byName[c.TechnicalName] = c.ID
	}
}

// LoadPackage indexes a registered package's objects for lookup.
func (d *Database) LoadPackage(name string) error {
	pkg, ok := d.packages[name]
	if !ok {
		return fmt.Errorf("load package: %q not registered", name)
	}
	if d.loaded[name] {
		return nil
	}
	for _, obj := range pkg.objects {
		d.objects[obj.ObjectID()] = obj
		if tn := obj.Technical(); tn != "" {
			d.byName[tn] = obj.ObjectID()
		}
	}
	d.loaded[name] = true
	return nil
}

// UnloadPackage removes a package's objects from the index. It reports
// whether the package was loaded.
func (d *Database) UnloadPackage(name string) bool {
	pkg, ok := d.packages[name]
	if !ok || !d.loaded[name] {
		return false
	}
	for _, obj := range pkg.objects {
		delete(d.objects, obj.ObjectID())
		if tn := obj.Technical(); tn != "" && d.byName[tn] == obj.ObjectID() {
			delete(d.byName, tn)
		}
	}
	d.loaded[name] = false
	return true
}

// LoadDefaultPackages loads every package flagged as default.
func (d *Database) LoadDefaultPackages() error {
	for _, name := range d.packageOrder {
		if d.packages[name].Default {
			if err := d.LoadPackage(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadedPackages returns the names of currently loaded packages in
// registration order.
func (d *Database) LoadedPackages() []string {
	var out []string
	for _, name := range d.packageOrder {
		if d.loaded[name] {
			out = append(out, name)
		}
	}
	return out
}

// Resolve returns the object with the given ID.
func (d *Database) Resolve(id domain.ID) (domain.Object, error) {
	if obj, ok := d.objects[id]; ok {
		return obj, nil
	}
	return nil, &domain.UnresolvedReferenceError{ID: id}
}

// ResolveByName returns the object with the given technical name.
func (d *Database) ResolveByName(name string) (domain.Object, error) {
	if id, ok := d.byName[name]; ok {
		return d.objects[id], nil
	}
	return nil, &domain.UnresolvedReferenceError{Name: name}
}

// Node returns the flow node with the given ID.
func (d *Database) Node(id domain.ID) (*domain.Node, error) {
	obj, err := d.Resolve(id)
	if err != nil {
		return nil, err
	}
	node, ok := obj.(*domain.Node)
	if !ok {
		return nil, fmt.Errorf("object %s is not a node", id)
	}
	return node, nil
}

// ResolveRef resolves a node reference. Clone indices address instances of
// the same template, so the ref's ID alone identifies the node here.
func (d *Database) ResolveRef(ref domain.Ref) (*domain.Node, error) {
	if !ref.IsValid() {
		return nil, &domain.UnresolvedReferenceError{ID: ref.ID}
	}
	return d.Node(ref.ID)
}

// Character returns the speaker with the given ID.
func (d *Database) Character(id domain.ID) (*domain.Character, error) {
	if c, ok := d.characters[id]; ok {
		return c, nil
	}
	return nil, &domain.UnresolvedReferenceError{ID: id}
}

// Characters returns all registered speakers in registration order.
func (d *Database) Characters() []*domain.Character {
	out := make([]*domain.Character, 0, len(d.characterOrder))
	for _, id := range d.characterOrder {
		out = append(out, d.characters[id])
	}
	return out
}

// NodesOfKind returns every loaded node of the given kind.
func (d *Database) NodesOfKind(kind domain.Kind) []*domain.Node {
	var out []*domain.Node
	for _, name := range d.packageOrder {
		if !d.loaded[name] {
			continue
		}
		for _, obj := range d.packages[name].objects {
			if node, ok := obj.(*domain.Node); ok && node.Kind == kind {
				out = append(out, node)
			}
		}
	}
	return out
}

// Nodes returns every loaded node in package order.
func (d *Database) Nodes() []*domain.Node {
	var out []*domain.Node
	for _, name := range d.packageOrder {
		if !d.loaded[name] {
			continue
		}
		for _, obj := range d.packages[name].objects {
			if node, ok := obj.(*domain.Node); ok {
				out = append(out, node)
			}
		}
	}
	return out
}
