package main

import "dialogue/internal/app/server"

func main() {
	server.Run()
}
