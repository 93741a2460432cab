package main

import "vidlink/cmd"

func main() {
	cmd.Execute()
}
