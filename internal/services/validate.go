package services

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// bcrypt ignores input past this length.
const maxPasswordBytes = 72

// Column widths in schema.sql, counted in characters.
const (
	maxNameLen     = 255
	maxEmailLen    = 255
	maxFilenameLen = 255
	maxTitleLen    = 255
	maxMimeTypeLen = 100
)

// NormalizeEmail lowercases and trims an address before it is stored or compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if err := validateLength("email", email, maxEmailLen); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Message: "value is not a valid email address"}
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Message: "must not be empty"}
	}
	if len(password) > maxPasswordBytes {
		return &ValidationError{Field: "password", Message: "must be at most 72 bytes"}
	}
	return nil
}

func validateName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "must not be empty"}
	}
	return validateLength(field, strings.TrimSpace(value), maxNameLen)
}

func validateLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)}
	}
	return nil
}

// validatePhotoFields checks the metadata against the photos columns before any bytes are written.
func validatePhotoFields(in UploadInput) error {
	if err := validateLength("filename", in.Filename, maxFilenameLen); err != nil {
		return err
	}
	if err := validateLength("content_type", in.ContentType, maxMimeTypeLen); err != nil {
		return err
	}
	if in.Title != nil {
		return validateLength("title", *in.Title, maxTitleLen)
	}
	return nil
}
