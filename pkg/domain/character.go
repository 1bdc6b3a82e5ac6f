package domain

// Character represents a speaker referenced by dialogue nodes.
type Character struct {
	ObjectBase
	DisplayName string
	// Color is the editor's display color in "#RRGGBB" form.
	Color string
}
