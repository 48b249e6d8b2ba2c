package main

import "github.com/okanon/oracle/cmd"

func main() {
	cmd.Execute()
}
