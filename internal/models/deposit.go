package models

import "fmt"

// DepositFile is one photo attached to a deposit.
type DepositFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// DepositRequest is the certification form submitted by an installer.
type DepositRequest struct {
	Actor                 string
	Beneficiary           string
	WorkAddress           string
	AddressConfirmed      bool
	InstallationCertified bool
	InvoicePhotos         []DepositFile
	LuminairePhotos       []DepositFile
}

// Files returns invoice photos followed by luminaire photos.
func (r *DepositRequest) Files() []DepositFile {
	files := make([]DepositFile, 0, len(r.InvoicePhotos)+len(r.LuminairePhotos))
	files = append(files, r.InvoicePhotos...)
	files = append(files, r.LuminairePhotos...)
	return files
}

// Coordinates is a geocoded position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%v, %v)", c.Latitude, c.Longitude)
}

// DepositResult reports what was forwarded to the certification API.
type DepositResult struct {
	Description   string      `json:"description"`
	Coordinates   Coordinates `json:"coordinates"`
	FilesUploaded int         `json:"files_uploaded"`
	Requests      int         `json:"requests"`
	Errors        []string    `json:"errors,omitempty"`
}
