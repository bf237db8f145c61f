package main

import (
	"fmt"
	"log"
	"os"

	"github.com/MrSnakeDoc/inkpad/internal/app"
)

const usage = `usage:
  inkpad                     run the dashboard server
  inkpad token <identity-id> print an identity token for local use`

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "token":
			if len(os.Args) != 3 {
				log.Fatal(usage)
			}
			token, err := app.Token(os.Args[2])
			if err != nil {
				log.Fatalf("❌ inkpad token failed: %v", err)
			}
			fmt.Println(token)
			return
		case "-h", "--help", "help":
			fmt.Println(usage)
			return
		default:
			log.Fatal(usage)
		}
	}

	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ inkpad failed to start: %v", err)
	}
}
