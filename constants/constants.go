package constants

import "os"

func GetPort() string {
	port := os.Getenv("PORT")
	if port != "" {
		return port
	}
	return "8080"
}

const DefaultIndent = "  "

// MaxSourceBytes bounds request bodies on the conversion endpoint.
const MaxSourceBytes = 1 << 20
