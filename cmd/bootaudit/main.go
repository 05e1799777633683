package main

import "github.com/bootaudit/bootaudit/internal/cli"

func main() {
	cli.Execute()
}
