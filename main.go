package main

import "offergate/internal/cli"

func main() {
	cli.Execute()
}
