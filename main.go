package main

import "github.com/strumline/strumline/cmd"

func main() {
	cmd.Execute()
}
