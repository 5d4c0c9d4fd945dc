package main

import "ragbot-cli/cmd"

func main() {
	cmd.Execute()
}
