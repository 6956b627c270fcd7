package main

import "github.com/vietddude/llmclient/internal/cli"

func main() {
	cli.Execute()
}
