package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/api"
	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/models"
	"github.com/popeskul/insdr-dispatch/internal/provider/certify"
	"github.com/popeskul/insdr-dispatch/internal/provider/geocode"
)

const (
	minInvoicePhotos   = 4
	maxInvoicePhotos   = 20
	minLuminairePhotos = 1
	maxLuminairePhotos = 10

	defaultFilesPerRequest = 12
)

var allowedPhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type depositService struct {
	cfg            *config.Config
	geocoder       geocode.Geocoder
	client         certify.API
	session        SessionService
	circuitBreaker *CircuitBreaker
	logger         *zap.Logger
}

func NewDepositService(
	cfg *config.Config,
	geocoder geocode.Geocoder,
	client certify.API,
	session SessionService,
	circuitBreaker *CircuitBreaker,
	logger *zap.Logger,
) DepositService {
	return &depositService{
		cfg:            cfg,
		geocoder:       geocoder,
		client:         client,
		session:        session,
		circuitBreaker: circuitBreaker,
		logger:         logger,
	}
}

// SubmitDeposit validates the form, geocodes the work address and uploads
// invoice then luminaire photos in groups of files_per_request. A failed group
// is reported in the result and the remaining groups are still sent.
func (s *depositService) SubmitDeposit(ctx context.Context, req *models.DepositRequest) (*models.DepositResult, error) {
	req.Beneficiary = strings.TrimSpace(req.Beneficiary)
	req.WorkAddress = strings.TrimSpace(req.WorkAddress)

	if err := ValidateDeposit(req); err != nil {
		return nil, err
	}

	coords, err := s.geocoder.Geocode(ctx, req.WorkAddress)
	if errors.Is(err, geocode.ErrAddressNotFound) {
		return nil, &ValidationError{
			Message: "invalid deposit",
			Details: []string{"work_address: no GPS coordinates found for this address"},
		}
	}
	if err != nil {
		return nil, &ExternalServiceError{Service: "geocoding", Err: err}
	}

	description := DepositDescription(req, coords)

	files := req.Files()
	for i := range files {
		files[i].Name = depositFileName(req.Beneficiary, i+1, files[i].Name)
	}

	perRequest := s.cfg.Certification.FilesPerRequest
	if perRequest <= 0 {
		perRequest = defaultFilesPerRequest
	}

	result := &models.DepositResult{
		Description: description,
		Coordinates: coords,
	}

	for start := 0; start < len(files); start += perRequest {
		end := min(start+perRequest, len(files))
		group := files[start:end]
		result.Requests++

		if err := s.upload(ctx, description, group); err != nil {
			s.logger.Error("Failed to upload deposit files",
				zap.String("actor", req.Actor),
				zap.Int("from", start+1),
				zap.Int("to", end),
				zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("files %d-%d: %v", start+1, end, err))
			continue
		}

		result.FilesUploaded += len(group)
	}

	if result.FilesUploaded == 0 {
		return result, &ExternalServiceError{
			Service: "certification",
			Err:     errors.New(strings.Join(result.Errors, "; ")),
		}
	}

	s.logger.Info("Deposit submitted",
		zap.String("actor", req.Actor),
		zap.Int("files", result.FilesUploaded),
		zap.Int("requests", result.Requests))

	return result, nil
}

func (s *depositService) upload(ctx context.Context, description string, files []models.DepositFile) error {
	sessionID, err := s.session.SessionID(ctx)
	if err != nil {
		return err
	}

	err = s.circuitBreaker.Execute(ctx, func() error {
		return s.client.Deposit(ctx, sessionID, description, files)
	})
	if err != nil {
		// The session may have expired upstream; the next group logs in again.
		s.session.Invalidate()
		return err
	}
	return nil
}

func (s *depositService) GetCircuitBreakerState() api.CircuitBreakerState {
	return s.circuitBreaker.GetState()
}

// ValidateDeposit checks the form rules and collects every violation.
func ValidateDeposit(req *models.DepositRequest) error {
	var details []string

	if req.Beneficiary == "" {
		details = append(details, "beneficiary: required")
	}
	if req.WorkAddress == "" {
		details = append(details, "work_address: required")
	}
	if n := len(req.InvoicePhotos); n < minInvoicePhotos || n > maxInvoicePhotos {
		details = append(details, fmt.Sprintf("invoices: between %d and %d photos required, got %d", minInvoicePhotos, maxInvoicePhotos, n))
	}
	if n := len(req.LuminairePhotos); n < minLuminairePhotos || n > maxLuminairePhotos {
		details = append(details, fmt.Sprintf("luminaires: between %d and %d photos required, got %d", minLuminairePhotos, maxLuminairePhotos, n))
	}
	if !req.AddressConfirmed {
		details = append(details, "address_confirmed: the work address must be confirmed")
	}
	if !req.InstallationCertified {
		details = append(details, "installation_certified: the installation must be certified complete")
	}
	for _, f := range req.Files() {
		if !allowedPhotoExtensions[strings.ToLower(filepath.Ext(f.Name))] {
			details = append(details, fmt.Sprintf("%s: only jpg and png photos are accepted", f.Name))
		}
	}

	if len(details) > 0 {
		return &ValidationError{Message: "invalid deposit", Details: details}
	}
	return nil
}

// DepositDescription renders the certification record text.
func DepositDescription(req *models.DepositRequest, coords models.Coordinates) string {
	return fmt.Sprintf(
		"SCELLÉ NUMERIQUE Bénéficiaire: %s, Adresse des travaux: %s, Coordonnées GPS: %s, Confirmation adresse: %s, Certification installation: %s",
		req.Beneficiary,
		req.WorkAddress,
		coords.String(),
		yesNo(req.AddressConfirmed),
		yesNo(req.InstallationCertified),
	)
}

func yesNo(v bool) string {
	if v {
		return "Oui"
	}
	return "Non"
}

func depositFileName(beneficiary string, idx int, original string) string {
	name := strings.Join(strings.Fields(beneficiary), "_")
	return fmt.Sprintf("%s_%d%s", name, idx, strings.ToLower(filepath.Ext(original)))
}
