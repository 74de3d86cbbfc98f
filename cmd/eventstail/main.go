package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"giveaway_bot/internal/events"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Prints the admin event stream. The init data must belong to an admin.
func main() {
	url := flag.String("url", "ws://localhost:8080/api/v1/admin/events", "event stream endpoint")
	initData := flag.String("init-data", os.Getenv("APP_INIT_DATA"), "Telegram Mini App init data of an admin")
	flag.Parse()

	if *initData == "" {
		log.Fatal("init data is required: pass -init-data or set APP_INIT_DATA")
	}

	header := http.Header{}
	header.Add("Authorization", "Telegram "+*initData)

	conn, _, err := websocket.DefaultDialer.Dial(*url, header)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	messageQueue := make(chan events.Message)

	go func() {
		defer close(messageQueue)
		for {
			var msg events.Message
			if err := conn.ReadJSON(&msg); err != nil {
				log.Println("read error:", err)
				return
			}

			messageQueue <- msg
		}
	}()

	for message := range messageQueue {
		mJson, err := json.MarshalIndent(message, "", "  ")
		if err != nil {
			log.Println("json marshal error:", err)
			continue
		}
		log.Printf("Received:\n%s\n", mJson)
	}
}
