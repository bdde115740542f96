package main

import "github.com/sander-remitly/inventory-allocator/cmd"

func main() {
	cmd.Execute()
}
