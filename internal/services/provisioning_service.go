package services

import (
	"context"
	"errors"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/host"

	"github.com/mastermind2990/ohr-shalom-terminal-agent/internal/models"
	"github.com/mastermind2990/ohr-shalom-terminal-agent/pkg/identity"
	"github.com/mastermind2990/ohr-shalom-terminal-agent/pkg/stripe"
)

// Workflow outcomes that drive the process exit code.
var (
	// ErrLocationVerification means the configured Terminal location could not
	// be fetched; nothing else runs after it.
	ErrLocationVerification = errors.New("location verification failed")

	// ErrRegistration means the reader create call was rejected or never
	// reached Stripe.
	ErrRegistration = errors.New("reader registration failed")
)

// ProvisioningService registers the kiosk tablet as a Stripe Terminal reader.
// It verifies the Terminal location, enumerates existing readers for the
// operator, then creates the new reader. Enumeration failures degrade to an
// empty listing; the other two steps are terminal on failure.
type ProvisioningService struct {
	// Configuration fields
	locationID string
	label      string
	readerType string

	// Dependencies for device identity and the Stripe Terminal API
	deviceInfo   identity.DeviceInfoInterface
	stripeClient stripe.Client
	logger       zerolog.Logger

	// Result of the last successful run
	report *models.ProvisioningReport

	// Internal state for managing service lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewProvisioningService initializes and returns a new ProvisioningService instance.
func NewProvisioningService(
	locationID string,
	label string,
	readerType string,
	deviceInfo identity.DeviceInfoInterface,
	stripeClient stripe.Client,
	logger zerolog.Logger,
) *ProvisioningService {
	return &ProvisioningService{
		locationID:   locationID,
		label:        label,
		readerType:   readerType,
		deviceInfo:   deviceInfo,
		stripeClient: stripeClient,
		logger:       logger,
	}
}

// Start begins the provisioning workflow if it's not already running.
func (ps *ProvisioningService) Start() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ctx != nil {
		ps.logger.Warn().Msg("Provisioning service is already running")
		return errors.New("provisioning service is already running")
	}

	ps.ctx, ps.cancel = context.WithCancel(context.Background())

	ps.logger.Info().Str("location_id", ps.locationID).Str("label", ps.label).Msg("Starting Terminal reader provisioning")

	return ps.Run()
}

// Run executes the three workflow steps in order. Location verification and
// reader registration abort the run on failure; reader enumeration does not.
func (ps *ProvisioningService) Run() error {
	if ps.ctx == nil {
		ps.ctx = context.Background()
	}

	location, err := ps.verifyLocation()
	if err != nil {
		return err
	}

	existingReaders := ps.listReaders()

	reader, err := ps.registerReader(existingReaders)
	if err != nil {
		return err
	}

	ps.report = &models.ProvisioningReport{
		LocationID:   location.ID,
		LocationName: location.DisplayName,
		ReaderID:     reader.ID,
		DeviceType:   reader.DeviceType,
		Status:       reader.Status,
		Label:        ps.label,
	}

	return nil
}

// verifyLocation fetches the configured Terminal location. Any failure here
// is fatal for the whole workflow.
func (ps *ProvisioningService) verifyLocation() (*stripe.Location, error) {
	location, err := ps.stripeClient.GetLocation(ps.ctx, ps.locationID)
	if err != nil {
		ps.logger.Error().Err(err).Str("location_id", ps.locationID).Msg("Location verification failed")
		return nil, errors.Join(ErrLocationVerification, err)
	}

	ps.logger.Info().
		Str("location_id", location.ID).
		Str("display_name", location.DisplayName).
		Str("address", location.Address.Line1+", "+location.Address.City).
		Msg("Location verified")

	return location, nil
}

// listReaders enumerates existing readers for the operator. Failures degrade
// to an empty list with a warning.
func (ps *ProvisioningService) listReaders() []stripe.Reader {
	readers, err := ps.stripeClient.ListReaders(ps.ctx)
	if err != nil {
		ps.logger.Warn().Err(err).Msg("Failed to list existing readers, continuing without them")
		return nil
	}

	ps.logger.Info().Int("count", len(readers)).Msg("Found existing readers")
	for _, reader := range readers {
		ps.logger.Info().
			Str("reader_id", reader.ID).
			Str("label", reader.Label).
			Str("device_type", reader.DeviceType).
			Str("location", reader.Location).
			Str("status", reader.Status).
			Msg("Existing reader")
	}

	return readers
}

// registerReader creates the new reader. Existing readers are only used to
// warn the operator about duplicate labels; creation always proceeds, so two
// identical runs produce two distinct readers.
func (ps *ProvisioningService) registerReader(existingReaders []stripe.Reader) (*stripe.Reader, error) {
	for _, existing := range existingReaders {
		if existing.Label == ps.label {
			ps.logger.Warn().
				Str("reader_id", existing.ID).
				Str("label", existing.Label).
				Msg("A reader with this label already exists, registering another one")
			break
		}
	}

	if existingID := ps.deviceInfo.GetReaderID(); existingID != "" {
		ps.logger.Warn().Str("reader_id", existingID).Msg("This device was registered before, registering a new reader")
	}

	reader, err := ps.stripeClient.CreateReader(ps.ctx, stripe.CreateReaderParams{
		Type:       ps.readerType,
		LocationID: ps.locationID,
		Label:      ps.label,
		Metadata:   ps.buildReaderMetadata(),
	})
	if err != nil {
		ps.logger.Error().Err(err).Msg("Reader registration failed")
		return nil, errors.Join(ErrRegistration, err)
	}

	ps.logger.Info().
		Str("reader_id", reader.ID).
		Str("device_type", reader.DeviceType).
		Str("location", reader.Location).
		Str("status", reader.Status).
		Msg("Terminal reader registered successfully")

	if err := ps.deviceInfo.SaveReaderID(reader.ID); err != nil {
		ps.logger.Warn().Err(err).Msg("Failed to persist the assigned reader ID")
	}

	return reader, nil
}

// buildReaderMetadata merges the identity file's fields with a host
// fingerprint into the metadata sent on the create call.
func (ps *ProvisioningService) buildReaderMetadata() map[string]string {
	deviceIdentity := ps.deviceInfo.GetDeviceIdentity()

	metadata := make(map[string]string, len(deviceIdentity.Metadata)+5)
	for key, value := range deviceIdentity.Metadata {
		metadata[key] = value
	}

	metadata["tablet_id"] = deviceIdentity.TabletID

	if deviceIdentity.AppVersion != "" {
		if _, err := semver.NewVersion(deviceIdentity.AppVersion); err != nil {
			ps.logger.Warn().Err(err).Str("app_version", deviceIdentity.AppVersion).Msg("App version is not valid semver")
		}
		metadata["app_version"] = deviceIdentity.AppVersion
	}

	if deviceIdentity.Purpose != "" {
		metadata["purpose"] = deviceIdentity.Purpose
	}

	if info, err := host.Info(); err != nil {
		ps.logger.Warn().Err(err).Msg("Failed to collect host information")
	} else {
		metadata["hostname"] = info.Hostname
		metadata["platform"] = info.Platform
	}

	return metadata
}

// Report returns the result of the last successful run, or nil if the
// workflow has not completed.
func (ps *ProvisioningService) Report() *models.ProvisioningReport {
	return ps.report
}

// Stop cancels an in-flight workflow.
func (ps *ProvisioningService) Stop() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ctx == nil {
		return errors.New("provisioning service is not running")
	}

	ps.cancel()
	ps.ctx = nil
	ps.cancel = nil

	ps.logger.Info().Msg("Provisioning service stopped")
	return nil
}
