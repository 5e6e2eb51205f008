package main

import "zlatko/internal/app"

func main() {
	app.Execute()
}
