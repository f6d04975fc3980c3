package main

import "github.com/meghashyamc/docquery/cli"

func main() {
	cli.Execute()
}
