/*
Package auraflow interprets operator-authored conversation workflows: directed
graphs of message, options, sale, handoff, terminate and schedule nodes drawn
in a visual editor and published for a chat widget.

# Concept

The engine walks the published graph one step at a time on behalf of each
visitor session. Nodes that need an answer (options, sale, schedule) stop the
run and wait; the others emit their text and auto-advance after a short delay.
Progress is persisted per session, so a conversation resumes where it stopped
and is reset when the operator publishes a new version of the workflow.

Storage, locking, the workflow source and the workshop services (inventory and
sale registration) are ports. Adapters for memory, files, Redis, Postgres and
HTTP live under pkg/adapters.

# Usage

	source := file.NewSource("flow.json")
	engine, err := auraflow.New(source,
		auraflow.WithStore(redis.NewFromClient(client)),
		auraflow.WithWorkshop(workshop.NewClient(cfg)),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Shutdown()

	reply, err := engine.HandleMessage(ctx, "visitor-42", "oi")
	if err != nil {
		log.Fatal(err)
	}
	for _, e := range reply.Entries {
		fmt.Println(e.Role, e.Content)
	}

Entries produced after a delay are not part of the reply: follow them through
domain.LifecycleHooks.OnEntry, the HTTP event stream or Engine.Conversation.
Run Engine.Watch with a pkg/watch watcher to reset idle sessions as soon as a
new version is published.
*/
package auraflow
