package main

import "github.com/theirongolddev/deptfund/cmd"

func main() {
	cmd.Execute()
}
