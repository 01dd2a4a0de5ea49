package main

import "github.com/encodeous/packetsim/cmd"

func main() {
	cmd.Execute()
}
