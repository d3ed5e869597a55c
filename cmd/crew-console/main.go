package main

import "github.com/oshokin/crew-alert/cmd/crew-console/cmd"

func main() {
	cmd.Execute()
}
