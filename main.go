package main

import "github.com/iksnae/darkscan/cmd"

func main() {
	cmd.Execute()
}
