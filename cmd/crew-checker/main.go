package main

import "github.com/oshokin/crew-alert/cmd/crew-checker/cmd"

func main() {
	cmd.Execute()
}
