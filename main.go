package main

import "github.com/agentic-research/reshape/cmd"

func main() {
	cmd.Execute()
}
