package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// ParseForecastRequest decodes and validates a request message. A request
// without an ID takes the message key, or a fresh UUID when there is none.
func ParseForecastRequest(raw RawEvent) (ForecastRequest, error) {
	var req ForecastRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return ForecastRequest{}, fmt.Errorf("parse forecast request: %w", err)
	}
	if err := ValidateRequest(req); err != nil {
		return ForecastRequest{}, err
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return req, nil
}

var (
	// ErrInvalidRequest matches every request validation failure.
	ErrInvalidRequest = errors.New("invalid forecast request")

	// ErrNoLocation is returned for requests with neither coordinates nor a
	// grid cell.
	ErrNoLocation = errors.New("request has no coordinates or grid cell")
)

// ValidateRequest checks that a request names a location.
func ValidateRequest(req ForecastRequest) error {
	if req.Cell == nil && (req.Lon == nil || req.Lat == nil) {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrNoLocation)
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// ResolveRequest picks the grid cell and outlook regions for a request.
// Explicit regions win, then regions derived from the address, then
// defaults. A temperature region alone implies its land region.
func ResolveRequest(req ForecastRequest, defaults Regions) (GridCell, Regions) {
	var cell GridCell
	if req.Cell != nil {
		cell = *req.Cell
	} else if req.Lon != nil && req.Lat != nil {
		cell = ProjectGrid(*req.Lon, *req.Lat)
	}

	regions := defaults
	if fromAddr, ok := ResolveRegions(strings.TrimSpace(req.Address)); ok {
		regions = fromAddr
	}
	if req.TempRegion != "" {
		regions.Temperature = req.TempRegion
		if req.LandRegion == "" {
			regions.Land = LandRegionFor(req.TempRegion)
		}
	}
	if req.LandRegion != "" {
		regions.Land = req.LandRegion
	}
	return cell, regions
}

// SerializeForecast marshals a forecast into an output event keyed by
// request ID.
func SerializeForecast(fc Forecast) (OutputEvent, error) {
	data, err := json.Marshal(fc)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize forecast: %w", err)
	}
	return OutputEvent{
		Key:   []byte(fc.RequestID),
		Value: data,
		Headers: map[string]string{
			"request_id":   fc.RequestID,
			"grid":         fmt.Sprintf("%d,%d", fc.Cell.NX, fc.Cell.NY),
			"generated_at": fc.GeneratedAt.Format(time.RFC3339),
		},
	}, nil
}
