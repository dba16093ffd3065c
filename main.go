package main

import "worktally/cmd"

func main() {
	cmd.Execute()
}
