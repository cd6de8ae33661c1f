// Command parley runs the shopping dialog engine as an interactive chat,
// an HTTP server or an MCP server, and administers stored conversations.
package main

func main() {
	Execute()
}
