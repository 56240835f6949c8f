package main

import "github.com/brogergvhs/yandanshe/cmd"

func main() {
	cmd.Execute()
}
