package main

import (
	"fmt"
	"log"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kwkoo/configparser"

	"github.com/barquiz/trivia-server/internal"
	"github.com/barquiz/trivia-server/internal/api"
	"github.com/barquiz/trivia-server/internal/shutdown"
)

func main() {
	// optional .env for local development
	godotenv.Load()

	config := struct {
		Port            int    `default:"3001" usage:"HTTP listener port"`
		ClientURL       string `env:"CLIENT_URL" default:"http://localhost:5173" usage:"Allowed client origin for websocket and REST requests"`
		JanitorInterval int    `default:"30" usage:"Minutes between sweeps of ended games"`
	}{}
	if err := configparser.Parse(&config); err != nil {
		log.Fatal(err)
	}

	shutdown.InitShutdownHandler()

	games := internal.InitGames()
	go games.RunJanitor(time.Duration(config.JanitorInterval) * time.Minute)

	hub := internal.NewHub(games, config.ClientURL)
	go hub.Run()

	restapi := api.InitRestApi(games, config.ClientURL)
	http.HandleFunc("/health", restapi.Health)
	http.HandleFunc("/api/games/", restapi.Games)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		internal.ServeWs(hub, w, r)
	})

	log.Printf("listening on port %v", config.Port)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", config.Port), nil))
}
