package main

import "github.com/valpere/linguabridge/cmd"

func main() {
	cmd.Execute()
}
