package main

import "github.com/hostdash/hostdash/internal/cli"

func main() {
	cli.Execute()
}
