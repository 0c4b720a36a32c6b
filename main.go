package main

import "couple-journal-backend/cmd"

func main() {
	cmd.Run()
}
