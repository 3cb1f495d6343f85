package main

import "mediamerge/cmd"

func main() {
	cmd.Execute()
}
