package address

import (
	"regexp"
	"strings"

	"storefront/internal/structs"
	"storefront/pkg/utils"
)

var (
	phoneRe   = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodeRe = regexp.MustCompile(`^\d{6}$`)
)

// Normalize trims every field. Locality and address type stay optional.
func Normalize(req structs.CreateAddress) structs.CreateAddress {
	req.Name = strings.TrimSpace(req.Name)
	// "98765 43210" and "635 001" are how people type them
	req.Phone = utils.RemoveSpaceSymbol(req.Phone)
	req.Pincode = utils.RemoveSpaceSymbol(req.Pincode)
	req.Locality = strings.TrimSpace(req.Locality)
	req.Address = strings.TrimSpace(req.Address)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)
	req.AddressType = strings.TrimSpace(req.AddressType)
	return req
}

// Validate returns a *structs.ValidationError naming every bad field, or nil.
func Validate(req structs.CreateAddress) error {
	req = Normalize(req)

	var fields []structs.FieldError
	required := func(name, value string) bool {
		if value == "" {
			fields = append(fields, structs.FieldError{Field: name, Problem: structs.FieldMissing})
			return false
		}
		return true
	}
	pattern := func(name, value string, re *regexp.Regexp) {
		if required(name, value) && !re.MatchString(value) {
			fields = append(fields, structs.FieldError{Field: name, Problem: structs.FieldInvalid})
		}
	}

	required("name", req.Name)
	pattern("phone", req.Phone, phoneRe)
	pattern("pincode", req.Pincode, pincodeRe)
	required("address", req.Address)
	required("city", req.City)
	required("state", req.State)

	if len(fields) > 0 {
		return &structs.ValidationError{Fields: fields}
	}
	return nil
}
