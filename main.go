package main

import "github.com/sadopc/cmdvault/internal/cli"

func main() {
	cli.Execute()
}
