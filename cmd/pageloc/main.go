package main

import "go.pageloc/internal/cli"

func main() {
	cli.Execute()
}
