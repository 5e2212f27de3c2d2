package main

import "github.com/papapumpkin/linkrank/cmd"

func main() {
	cmd.Execute()
}
