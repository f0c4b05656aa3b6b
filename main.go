// Package main hosts the main function for minci-worker.
package main

import "github.com/minci/minci-worker/commands"

func main() {
	commands.Run(nil)
}
