package main

import "github.com/ecogames/ecosale/cmd"

func main() {
	cmd.Execute()
}
