package main

import "earnings-watch/internal/cli"

func main() {
	cli.Execute()
}
