// Command clinrag is a retrieval-augmented question answering CLI for
// clinical trial records, backed by a local Ollama instance.
package main

import (
	"github.com/clinrag/clinrag-cli/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
