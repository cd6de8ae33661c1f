/*
Package parley is a turn-routing dialog engine for a shopping assistant.

Every incoming line of user text is one turn. The engine loads the
conversation's persisted state, lets the router pick one of three branches
and saves the state back:

  - Card reply: the text is the payload of an option the user was just shown.
  - Shopping: the text is a shopping trigger; the shopping sub-dialog begins
    or resumes where it was suspended.
  - Reset: anything else cancels every active dialog and shows the top-level menu.

The shopping sub-dialog collects an action (buy, sell, change, retrieve) and,
for buy and change, an item, then answers and ends. Invalid replies re-prompt
with the same options and keep the dialog suspended at the same step.

# Architecture

The engine is hexagonal. Conversation state lives behind ports.StateStore
(memory, file, Redis, DynamoDB and Postgres adapters ship with the module),
turns on the same conversation are serialized by pkg/session, and channels
(terminal, HTTP, MCP) sit on top of Engine.Handle.

# Usage

	eng, err := parley.New(parley.WithStore(memory.NewStore()))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for _, text := range []string{"About shopping", "buy", "Clothes"} {
		reply, err := eng.Handle(ctx, "user-1", text)
		if err != nil {
			log.Fatal(err)
		}
		for _, act := range reply.Activities {
			fmt.Println(act.Text)
		}
	}
*/
package parley
