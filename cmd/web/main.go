package main

import "ngo_connect_backend/internal/app"

func main() {
	app.Run()
}
