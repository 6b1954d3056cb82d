/*
Copyright © 2026 Kettlewitch <kettlewitch@posteo.net>
*/

package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	releaseVersion = "0.2.1"
)

func main() {
	log.SetFlags(0)
	_ = godotenv.Load()
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}
