package main

import "github.com/mcoot/beforeafter/internal/cli"

func main() {
	cli.Execute()
}
