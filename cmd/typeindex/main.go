package main

import "typeindex/internal/cli"

func main() {
	cli.Execute()
}
