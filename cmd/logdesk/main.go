package main

import "github.com/charliek/logdesk/internal/cli"

func main() {
	cli.Execute()
}
