// Command brotherhood is a terminal client for the Brotherhood social network API.
package main

import "github.com/brotherhood-social/brotherhood/cmd/brotherhood/cmd"

func main() {
	cmd.Execute()
}
