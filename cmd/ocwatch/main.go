package main

import "github.com/emiliopalmerini/ocwatch/internal/cli"

func main() {
	cli.Execute()
}
