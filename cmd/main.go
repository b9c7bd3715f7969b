package main

import (
	"go-telehealth-booking/cmd/bootstrap"

	"github.com/sirupsen/logrus"
)

// @title Telehealth Booking API
// @version 1.0
// @description Appointment booking, triage and prescription API for a telehealth clinic
// @host localhost:8080
// @BasePath /api/v1
func main() {
	app, err := bootstrap.New()
	if err != nil {
		logrus.Fatalf("Failed to initialize application: %v", err)
	}

	app.Run()
}
