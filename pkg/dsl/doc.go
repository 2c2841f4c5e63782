/*
Package dsl provides a fluent Go builder for workflow graphs.

It is an alternative to editor documents when a flow is defined in code:
tests, samples, or flows generated by another program.

Example usage:

	b := dsl.New()
	b.Start().Go("welcome")
	b.Add("welcome").Message("Olá!").Go("menu")
	b.Add("menu").
		Options("Como posso ajudar?", "Vendas", "Suporte").
		Branch(0, "shop").
		Branch(1, "agent")
	b.Add("shop").Sale()
	b.Add("agent").Handoff()

	source, err := b.Publish()
	// ... pass source to auraflow.New(...)

Edge ids are generated in insertion order ("e1", "e2", ...) unless set.
*/
package dsl
