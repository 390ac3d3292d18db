package main

import "crewplan/internal/app/server"

func main() {
	server.Run()
}
