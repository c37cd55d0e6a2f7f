package main

import "github.com/mojo-fit/mojo-indexer/cmd"

func main() {
	cmd.Execute()
}
