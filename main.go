package main

import "github.com/scorio/scorio/cmd"

func main() {
	cmd.Execute()
}
