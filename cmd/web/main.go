package main

import "talentvault_backend/internal/app"

func main() {
	app.Run()
}
