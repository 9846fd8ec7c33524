package main

import (
	"flag"
	"log"

	"github.com/incentiva/campaign-engine/cmd"
)

func main() {
	campaignFile := flag.String("campaign", "", "Path to a campaign definition JSON file")
	campaignId := flag.String("campaign-id", "", "Id of a stored campaign (STORE=postgres)")
	eventFile := flag.String("event", "", "Path to an event JSON file")
	flag.Parse()

	if *eventFile == "" {
		log.Fatal("an event file is required (-event)")
	}
	if err := cmd.RunEvaluate(*campaignFile, *eventFile, *campaignId); err != nil {
		log.Fatal(err)
	}
}
