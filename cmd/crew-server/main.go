package main

import "github.com/oshokin/crew-alert/cmd/crew-server/cmd"

func main() {
	cmd.Execute()
}
