/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/daffahilmyf/users-api/cmd"

func main() {
	cmd.Execute()
}
