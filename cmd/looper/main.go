package main

import "github.com/vsariola/looper/cmd"

func main() {
	cmd.Execute()
}
