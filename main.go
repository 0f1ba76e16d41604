package main

import "broker-office/cmd"

func main() {
	cmd.Execute()
}
