package main

import "github.com/gadget-bot/venueshare/cmd"

func main() {
	cmd.Execute()
}
