package main

import "github.com/mcoot/quizclient/internal/cli"

func main() {
	cli.Execute()
}
