package main

import "github.com/polydb-io/polydb/internal/cli"

func main() {
	cli.Execute()
}
