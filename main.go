package main

import "github.com/naka-gawa/gh-issue-collector/cmd"

func main() {
	cmd.Execute()
}
