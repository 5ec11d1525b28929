package main

import "github.com/crimson-sun/clinote/internal/cli"

func main() {
	cli.Execute()
}
