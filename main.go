package main

import "github.com/riadafridishibly/nmremover/cli"

func main() {
	cli.Execute()
}
