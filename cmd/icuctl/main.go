package main

import "github.com/icuboard/icuboard/cmd/icuctl/cmd"

func main() {
	cmd.Execute()
}
