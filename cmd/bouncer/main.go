package main

import "github.com/example/app-bouncer/internal/cli"

func main() {
	cli.Execute()
}
