package main

import "github.com/numbfs/go-numbfs/cmd"

func main() {
	cmd.Execute()
}
