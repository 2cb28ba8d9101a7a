package main

import "github.com/danutirta/menu-access/cmd"

func main() {
	cmd.Execute()
}
