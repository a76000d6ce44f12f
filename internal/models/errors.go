package models

import "fmt"

// NotFoundError is returned when a place cannot be resolved to a coordinate
type NotFoundError struct {
	Query string
	Err   error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no coordinate found for %q: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("no coordinate found for %q", e.Query)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(query string, err error) *NotFoundError {
	return &NotFoundError{
		Query: query,
		Err:   err,
	}
}

// ProviderError represents an error reported by, or while reaching, an upstream provider
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new provider error
func NewProviderError(provider, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}

// MalformedResponseError is returned when a provider response lacks required fields
type MalformedResponseError struct {
	Provider string
	Message  string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s returned a malformed response: %s", e.Provider, e.Message)
}

func NewMalformedResponseError(provider, message string) *MalformedResponseError {
	return &MalformedResponseError{
		Provider: provider,
		Message:  message,
	}
}

// AssetNotFoundError is returned when the chart background image is missing
type AssetNotFoundError struct {
	Path string
	Err  error
}

func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("background image not found: %s", e.Path)
}

func (e *AssetNotFoundError) Unwrap() error {
	return e.Err
}

func NewAssetNotFoundError(path string, err error) *AssetNotFoundError {
	return &AssetNotFoundError{
		Path: path,
		Err:  err,
	}
}

// EmptySeriesError is returned when there is nothing to plot
type EmptySeriesError struct {
	Message string
}

func (e *EmptySeriesError) Error() string {
	return e.Message
}

func NewEmptySeriesError(message string) *EmptySeriesError {
	return &EmptySeriesError{
		Message: message,
	}
}

// Error when user input cannot be understood
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

func NewInvalidInputError(message string) *InvalidInputError {
	return &InvalidInputError{
		Message: message,
	}
}
