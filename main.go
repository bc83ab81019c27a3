package main

import "github.com/facetrace/facetrace/cmd"

func main() {
	cmd.Execute()
}
