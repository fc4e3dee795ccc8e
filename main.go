package main

import "github.com/bayarqu/ms-go-paybridge/cmd"

func main() {
	cmd.Execute()
}
