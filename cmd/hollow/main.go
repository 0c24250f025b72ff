package main

import "github.com/tessro/hollow/internal/cli"

func main() {
	cli.Execute()
}
