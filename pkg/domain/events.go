package domain

import "context"

// LifecycleHooks defines callbacks for player observability. All hooks are
// invoked synchronously from the player's call chain; they must observe,
// not call back into the player.
type LifecycleHooks struct {
	// OnPaused fires when the cursor comes to rest on a pausable node.
	OnPaused func(context.Context, *Node)

	// OnBranchesUpdated fires after a successful branch recomputation.
	OnBranchesUpdated func(context.Context, []Branch)

	// OnShadowStart fires after a speculative variable context is pushed.
	OnShadowStart func(context.Context)

	// OnShadowEnd fires before the matching speculative context is popped.
	OnShadowEnd func(context.Context)

	// OnVariableChanged fires when a variable is committed (non-shadowed)
	// with its full "Namespace.Variable" name.
	OnVariableChanged func(name string)
}
