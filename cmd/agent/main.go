package main

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mastermind2990/ohr-shalom-terminal-agent/internal/services"
	"github.com/mastermind2990/ohr-shalom-terminal-agent/internal/utils"
	"github.com/mastermind2990/ohr-shalom-terminal-agent/pkg/file"
	"github.com/mastermind2990/ohr-shalom-terminal-agent/pkg/identity"
	"github.com/mastermind2990/ohr-shalom-terminal-agent/pkg/stripe"
)

func main() {
	// Set up structured logging
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Resolve the Stripe secret key before anything touches the network
	secretKey, err := utils.ResolveSecretKey(config, fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Stripe secret key is not configured")
	}

	// Initialize DeviceInfo
	deviceInfo := identity.NewDeviceInfo(config.Identity.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load device information")
	}

	stripeClient := stripe.NewAPIClient(
		config.Stripe.APIBaseURL,
		secretKey,
		time.Duration(config.Stripe.Timeout)*time.Second,
		log,
	)

	provisioningService := services.NewProvisioningService(
		config.Services.Provisioning.LocationID,
		config.Services.Provisioning.Label,
		config.Services.Provisioning.ReaderType,
		deviceInfo,
		stripeClient,
		log,
	)

	if err := provisioningService.Start(); err != nil {
		// A rejected registration is operator feedback, not a process error;
		// a failed location verification aborts with a non-zero exit.
		if errors.Is(err, services.ErrRegistration) {
			log.Error().Err(err).Msg("Registration failed. Please check your Stripe credentials and try again")
			return
		}
		log.Fatal().Err(err).Msg("Cannot proceed without a valid location")
	}

	report := provisioningService.Report()
	log.Info().
		Str("reader_id", report.ReaderID).
		Str("device_type", report.DeviceType).
		Str("location", report.LocationID).
		Str("status", report.Status).
		Msg("Provisioning complete")
	log.Info().Msg("The tablet should now appear in the Stripe Dashboard under Terminal > Readers")
	log.Info().Msg("Test NFC payment processing on the tablet and check Terminal status in the admin interface")
}
