package main

import "github.com/emiliopalmerini/poisonbench/internal/cli"

func main() {
	cli.Execute()
}
