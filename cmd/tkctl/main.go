package main

import "github.com/mcoot/tkserver/internal/cli"

func main() {
	cli.Execute()
}
