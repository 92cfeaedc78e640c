package main

import (
	"log"

	"github.com/joho/godotenv"

	"sessiond/cmd/internal/app"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
