// Package mcp exposes PromptCraft over the Model Context Protocol.
//
// The server offers five tools to MCP clients such as desktop assistants:
//
//   - describe_image: turn an image into a structured or plain-text prompt
//   - inspire: three creative prompt ideas for an image
//   - generate_image: render a prompt, optionally from a reference image
//   - list_history: the most recent generations
//   - clear_history: forget every stored generation
//
// Images are passed either as a local file path or as base64 data.
//
//	srv := mcp.NewServer(client, repo, mcp.WithName("promptcraft"))
//	if err := server.ServeStdio(srv); err != nil {
//	    log.Fatal(err)
//	}
package mcp
