package main

import "github.com/techtern/backend/cmd"

func main() {
	cmd.Execute()
}
