package main

import "github.com/theirongolddev/budgetlens/cmd"

func main() {
	cmd.Execute()
}
