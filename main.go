package main

import "github.com/synapse-ia/salesagent/cmd"

func main() {
	cmd.Execute()
}
