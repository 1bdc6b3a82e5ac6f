/*
Package dsl provides a fluent Go builder for constructing dialogue graphs
programmatically, without an interchange export file. This is useful for
dynamic graph generation, unit testing, and leveraging IDE autocompletion
and type-checking.

Example usage:

	b := dsl.New("Demo")
	b.Variable("Flags.MetGuard", variables.TypeBool, false)
	b.Character("Guard", "Bren")

	b.Dialogue("Intro").
		Speaker("Guard").
		Text("Halt!").
		OnExit("Flags.MetGuard = true").
		To("Crossroads")

	b.Hub("Crossroads").
		Outputs(2).
		PinTo(0, "GuardPath").
		PinTo(1, "SneakPath")

	b.Dialogue("GuardPath").
		Text("You again.").
		MenuText("Face the guard").
		Gate("Flags.MetGuard")

	b.Dialogue("SneakPath").
		Text("The side gate creaks.").
		MenuText("Sneak around")

	res, err := b.Build()
	// res feeds dialogue.NewFromResult.
*/
package dsl
