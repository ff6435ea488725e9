package main

import "github.com/rustyeddy/goldtracker/internal/cli"

func main() {
	cli.Execute()
}
