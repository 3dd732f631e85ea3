package main

import "github.com/example/minstrel/cmd"

func main() {
	cmd.Execute()
}
