package dialogue_test

import (
	"context"
	"fmt"
	"log"

	dialogue "github.com/studiobgc/dialogue-editor"
	"github.com/studiobgc/dialogue-editor/pkg/dsl"
	"github.com/studiobgc/dialogue-editor/pkg/variables"
)

// ExampleNewFromResult demonstrates driving the engine over a graph built
// in code. This is useful for testing, embedded scenarios, or when you
// don't want to rely on an export file.
func ExampleNewFromResult() {
	// 1. Define the graph with the fluent builder.
	b := dsl.New("example")
	b.Variable("Flags.MetGuard", variables.TypeBool, false)
	b.Character("Guard", "Bren")

	b.Dialogue("Intro").
		Speaker("Guard").
		Text("Halt! Who goes there?").
		OnExit("Flags.MetGuard = true").
		To("Crossroads")

	b.Hub("Crossroads").
		Outputs(2).
		PinTo(0, "GuardPath").
		PinTo(1, "SneakPath")

	b.Dialogue("GuardPath").
		Text("You again. Move along.").
		MenuText("Face the guard").
		Gate("Flags.MetGuard")

	b.Dialogue("SneakPath").
		Text("You slip past through the side gate.").
		MenuText("Sneak around")

	res, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	// 2. Initialize the engine from the built result.
	engine, err := dialogue.NewFromResult(res)
	if err != nil {
		log.Fatal(err)
	}

	// 3. Position the cursor and inspect the offered branches. The guard
	// path is gated behind a flag that is still false, so only the sneak
	// route is offered.
	ctx := context.Background()
	if err := engine.Start(ctx, "Intro"); err != nil {
		log.Fatal(err)
	}
	fmt.Println(engine.Cursor().Dialogue.Text)
	for _, branch := range engine.Branches() {
		fmt.Printf("-> %s\n", branch.Target().Dialogue.MenuText)
	}

	// 4. Play the first branch. Committing through the intro's exit pin
	// flips the flag for real.
	if err := engine.Play(ctx, 0); err != nil {
		log.Fatal(err)
	}
	fmt.Println(engine.Cursor().Dialogue.Text)

	met, err := engine.Variables().GetBool("Flags.MetGuard")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("met the guard:", met)

	// Output:
	// Halt! Who goes there?
	// -> Sneak around
	// You slip past through the side gate.
	// met the guard: true
}
