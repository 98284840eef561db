package main

import "gcode_inspector/internal/cli"

func main() {
	cli.Execute()
}
