package main

import "github.com/mcoot/rpsmatch/internal/cli"

func main() {
	cli.Execute()
}
