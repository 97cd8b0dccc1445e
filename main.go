package main

import "github.com/Tiliavir/hrms-time-calc/cmd"

func main() {
	cmd.Execute()
}
