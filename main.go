package main

import "github.com/clipmine/clipmine/cmd"

func main() {
	cmd.Execute()
}
