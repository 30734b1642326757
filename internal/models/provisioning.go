package models

// ProvisioningReport summarizes a completed registration run.
type ProvisioningReport struct {
	// LocationID is the Terminal location the reader was bound to.
	LocationID string `json:"location_id"`

	// LocationName is the display name of the verified location.
	LocationName string `json:"location_name"`

	// ReaderID is the identifier Stripe assigned to the new reader.
	ReaderID string `json:"reader_id"`

	// DeviceType is the reader's device type as reported by Stripe.
	DeviceType string `json:"device_type"`

	// Status is the reader's status as reported by Stripe.
	Status string `json:"status"`

	// Label is the human-readable label the reader was registered with.
	Label string `json:"label"`
}
