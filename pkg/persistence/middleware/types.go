package middleware

import "github.com/studiobgc/dialogue-editor/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore
