package main

import "github.com/msomdec/fraudshield/internal/cli"

func main() {
	cli.Execute()
}
