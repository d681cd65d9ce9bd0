package main

import "github.com/ValentinKolb/dReact/cmd"

func main() {
	cmd.Execute()
}
