package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/OmerEfron/friend-lines-server/cmd/internal/app"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
