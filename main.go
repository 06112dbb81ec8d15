package main

import (
	_ "time/tzdata"

	"thyknow/cli"
)

func main() {
	cli.Execute()
}
