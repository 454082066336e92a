package main

import "github.com/oshokin/sdb-bridge/cmd/sdb-bridge/cmd"

func main() {
	cmd.Execute()
}
