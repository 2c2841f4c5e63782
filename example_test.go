package auraflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/auraflow"
	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/dsl"
)

// Example runs a published workflow in memory with the delays switched off,
// so every reply carries all the entries of its run.
func Example() {
	b := dsl.New()
	b.Start().Go("hello")
	b.Add("hello").Message("Olá").Go("menu")
	b.Add("menu").Options("Como posso ajudar?", "Vendas", "Suporte").
		Branch(0, "sales").
		Branch(1, "support")
	b.Add("sales").Sale()
	b.Add("support").Message("Você escolheu Suporte")

	source, err := b.Publish()
	if err != nil {
		log.Fatal(err)
	}

	engine, err := auraflow.New(source, auraflow.WithDelays(auraflow.NoDelays))
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Shutdown()

	ctx := context.Background()
	for _, text := range []string{"oi", "2"} {
		reply, err := engine.HandleMessage(ctx, "visitor-1", text)
		if err != nil {
			log.Fatal(err)
		}
		for _, e := range reply.Entries {
			if e.Role == domain.RoleAssistant {
				fmt.Println(e.Content)
			}
		}
	}
	// Output:
	// Olá
	// Como posso ajudar?
	//
	// 1. Vendas
	// 2. Suporte
	//
	// Digite apenas o número da opção (1, 2, 3...)
	// Você escolheu Suporte
}
