package main

import "github.com/ariebrainware/heart-risk/cmd"

func main() {
	cmd.Execute()
}
