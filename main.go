/*
Copyright © 2025 lacuradellauto
*/
package main

import (
	"github.com/joho/godotenv"
	"github.com/lacuradellauto/support-rag-be/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	// .env is optional; config and real environment cover everything.
	_ = godotenv.Load()
}
