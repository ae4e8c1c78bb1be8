package main

import "github.com/gmcintire/aprstx-nerves/cmd"

func main() {
	cmd.Execute()
}
