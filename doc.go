/*
Package dialogue is a runtime engine for branching dialogue graphs exported
from the dialogue editor.

It walks typed node graphs (dialogues, hubs, conditions, instructions,
jumps), explores the branch candidates ahead of the current position without
committing side effects, and commits exactly one branch when played. The
speculative part runs on a shadowed variable store: instructions executed
during lookahead are rolled back before control returns, so a condition
deeper in a branch can observe the effects of an instruction earlier in that
same branch while the committed state never moves.

# Concept

The engine separates the immutable graph (the database of imported packages)
from the mutable session (cursor plus variable values). A flow player owns
one session; snapshots of it can be persisted through pluggable state stores
and resumed later, including on another replica.

# Usage

Load an exported JSON document and step through it:

	package main

	import (
		"context"
		"fmt"
		"log"

		dialogue "github.com/studiobgc/dialogue-editor"
	)

	func main() {
		eng, err := dialogue.New("./story.dialogue.json")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		if err := eng.Start(ctx, "Intro"); err != nil {
			log.Fatal(err)
		}

		for {
			if node := eng.Cursor(); node.Dialogue != nil {
				fmt.Println(node.Dialogue.Text)
			}

			branches := eng.Branches()
			if len(branches) == 0 {
				break // end of flow
			}

			// In a real app the choice comes from the player.
			if err := eng.Play(ctx, 0); err != nil {
				log.Fatal(err)
			}
		}
	}

For terminal sessions, Runner wraps this loop with prompts and choice
menus. For services, pkg/session and the store adapters under pkg/adapters
add persistence and cross-replica locking.
*/
package dialogue
