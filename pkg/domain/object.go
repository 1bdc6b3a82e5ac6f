package domain

// Object is the common surface of everything the database owns: nodes and
// characters alike. Objects refer to each other by ID only; the database is
// the single owner, which keeps cyclic graphs trivially safe.
type Object interface {
	// ObjectID returns the stable identifier.
	ObjectID() ID
	// Technical returns the technical name used by scripts and lookups.
	Technical() string
	// Parent returns the owning object's ID (NilID at the root).
	Parent() ID
	// Children returns the IDs of owned objects, in authoring order.
	Children() []ID
}

// ObjectBase carries the fields shared by all database objects.
// Concrete types embed it and gain the Object interface.
type ObjectBase struct {
	ID            ID
	TechnicalName string
	ParentID      ID
	ChildIDs      []ID
}

func (o *ObjectBase) ObjectID() ID      { return o.ID }
func (o *ObjectBase) Technical() string { return o.TechnicalName }
func (o *ObjectBase) Parent() ID        { return o.ParentID }
func (o *ObjectBase) Children() []ID    { return o.ChildIDs }
