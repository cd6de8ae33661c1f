/*
Package runner drives a conversation from an I/O stream.

It is the bridge between the Engine and a terminal or a pipe: it reads one line
per turn, hands it to Engine.Handle and writes the resulting activities back
through a pluggable handler.

# Key Components

  - Runner: the read/handle/write loop for one conversation.
  - IOHandler: decouples how activities are shown and replies are read.
  - TextHandler: interactive terminal use; options are numbered and can be picked by number.
  - JSONHandler: JSON Lines for scripting and tests.

# Usage

	r := runner.New(engine, "user-1",
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
