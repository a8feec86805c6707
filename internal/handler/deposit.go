package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/popeskul/insdr-dispatch/internal/models"
)

const (
	fieldBeneficiary           = "beneficiary"
	fieldWorkAddress           = "work_address"
	fieldAddressConfirmed      = "address_confirmed"
	fieldInstallationCertified = "installation_certified"
	fieldInvoices              = "invoices"
	fieldLuminaires            = "luminaires"
)

func decodeDepositRequest(r *http.Request) (*models.DepositRequest, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	addressConfirmed, err := formBool(r, fieldAddressConfirmed)
	if err != nil {
		return nil, err
	}
	installationCertified, err := formBool(r, fieldInstallationCertified)
	if err != nil {
		return nil, err
	}

	invoices, err := readFiles(r.MultipartForm, fieldInvoices)
	if err != nil {
		return nil, err
	}
	luminaires, err := readFiles(r.MultipartForm, fieldLuminaires)
	if err != nil {
		return nil, err
	}

	return &models.DepositRequest{
		Beneficiary:           r.FormValue(fieldBeneficiary),
		WorkAddress:           r.FormValue(fieldWorkAddress),
		AddressConfirmed:      addressConfirmed,
		InstallationCertified: installationCertified,
		InvoicePhotos:         invoices,
		LuminairePhotos:       luminaires,
	}, nil
}

// formBool accepts strconv booleans and the "on" value sent by HTML checkboxes.
func formBool(r *http.Request, field string) (bool, error) {
	v := strings.TrimSpace(r.FormValue(field))
	switch strings.ToLower(v) {
	case "":
		return false, nil
	case "on", "yes":
		return true, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", field, v)
	}
	return b, nil
}

func readFiles(form *multipart.Form, field string) ([]models.DepositFile, error) {
	if form == nil {
		return nil, errors.New("multipart form is empty")
	}

	headers := form.File[field]
	files := make([]models.DepositFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", field, fh.Filename, err)
		}
		files = append(files, models.DepositFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
