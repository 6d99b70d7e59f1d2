/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/freyjadb/cmd/freyja/cmd"
)

func main() {
	cmd.Execute()
}
