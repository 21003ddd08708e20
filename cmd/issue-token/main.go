package main

import (
	"flag"
	"fmt"
	"log"

	"bitbucket.org/mmdatafocus/storefront_sync/utils"
)

// Mints a bearer token for service clients of the /api routes. Signed with
// API_SECRET, so run it with the same env as the server.
func main() {
	id := flag.Int("id", 0, "client id embedded in the token")
	role := flag.String("role", "service", "client role")
	flag.Parse()

	if *id <= 0 {
		log.Fatal("-id is required and must be positive")
	}

	token, err := utils.JwtGenerate(*id, *role)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Println(token)
}
