package main

import "github.com/yieldshift/sidecar/cmd"

func main() {
	cmd.Execute()
}
