package main

import "github.com/kalshi-odds/scanner/cmd"

func main() {
	cmd.Execute()
}
