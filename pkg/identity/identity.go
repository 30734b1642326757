package identity

import (
	"os"

	"github.com/google/uuid"

	"github.com/mastermind2990/ohr-shalom-terminal-agent/pkg/file"
)

// Identity holds the kiosk tablet's identifying fields and the Terminal
// reader ID assigned to it once it has been registered.
type Identity struct {
	TabletID   string            `json:"tablet_id,omitempty"`
	AppVersion string            `json:"app_version,omitempty"`
	Purpose    string            `json:"purpose,omitempty"`
	ReaderID   string            `json:"reader_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// DeviceInfoInterface defines methods for managing device identity.
type DeviceInfoInterface interface {
	LoadDeviceInfo() error
	SaveReaderID(readerID string) error
	GetReaderID() string
	GetDeviceIdentity() *Identity
}

// DeviceInfo manages the device identity and its associated file operations.
type DeviceInfo struct {
	DeviceInfoFile string
	Identity       Identity
	fileOps        file.FileOperations
}

// NewDeviceInfo initializes a new DeviceInfo instance.
func NewDeviceInfo(filePath string, fileOps file.FileOperations) DeviceInfoInterface {
	return &DeviceInfo{
		DeviceInfoFile: filePath,
		fileOps:        fileOps,
		Identity:       Identity{},
	}
}

// LoadDeviceInfo reads the device information from the file and populates the
// Identity field. A missing file yields an empty identity. Tablets without a
// tablet ID get a generated one, persisted so subsequent runs reuse it.
func (d *DeviceInfo) LoadDeviceInfo() error {
	err := d.fileOps.ReadJsonFile(d.DeviceInfoFile, &d.Identity)
	if err != nil {
		if os.IsNotExist(err) {
			d.Identity = Identity{}
		} else {
			return err
		}
	}

	if d.Identity.TabletID == "" {
		d.Identity.TabletID = "kiosk-" + uuid.New().String()
		return d.fileOps.WriteJsonFile(d.DeviceInfoFile, d.Identity)
	}

	return nil
}

// GetDeviceIdentity returns the current device Identity.
func (d *DeviceInfo) GetDeviceIdentity() *Identity {
	return &d.Identity
}

// GetReaderID returns the Terminal reader ID assigned to this device, if any.
func (d *DeviceInfo) GetReaderID() string {
	return d.Identity.ReaderID
}

// SaveReaderID updates the reader ID in the Identity field and writes it back to the file.
func (d *DeviceInfo) SaveReaderID(readerID string) error {
	d.Identity.ReaderID = readerID
	return d.fileOps.WriteJsonFile(d.DeviceInfoFile, d.Identity)
}
