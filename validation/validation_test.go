package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/sigdispatch/errors"
)

type target struct {
	Scheme   string `validate:"required,oneof=http https"`
	Hostname string `validate:"required"`
	Path     string
}

type limits struct {
	ReadBufferSize int    `mapstructure:"read_buffer_size" validate:"gte=512,lte=16777216"`
	Endpoint       string `yaml:"endpoint" validate:"omitempty,hostname_port"`
	Label          string `json:"label" validate:"max=4"`
}

func fieldsOf(t *testing.T, err error) []FieldError {
	t.Helper()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok {
		t.Fatalf("expected []FieldError detail, got %T", appErr.Details["fields"])
	}
	return fields
}

func TestStructValidateValid(t *testing.T) {
	if err := Validate(target{Scheme: "https", Hostname: "example.com"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	tests := []struct {
		name    string
		in      target
		field   string
		message string
	}{
		{"missing scheme", target{Hostname: "h"}, "scheme", "is required"},
		{"bad scheme", target{Scheme: "ftp", Hostname: "h"}, "scheme", "must be one of: http https"},
		{"missing hostname", target{Scheme: "http"}, "hostname", "is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.in)
			if err == nil {
				t.Fatal("expected error")
			}
			fields := fieldsOf(t, err)
			if len(fields) != 1 {
				t.Fatalf("expected 1 field error, got %v", fields)
			}
			if fields[0].Field != tc.field || fields[0].Message != tc.message {
				t.Errorf("expected %s: %s, got %s: %s", tc.field, tc.message, fields[0].Field, fields[0].Message)
			}
			if !strings.Contains(err.Error(), tc.field+": "+tc.message) {
				t.Errorf("expected message in %q", err.Error())
			}
		})
	}
}

func TestStructValidateUsesConfigKeys(t *testing.T) {
	err := Validate(limits{ReadBufferSize: 10, Endpoint: "nohostport", Label: "toolong"})
	if err == nil {
		t.Fatal("expected error")
	}
	got := map[string]string{}
	for _, f := range fieldsOf(t, err) {
		got[f.Field] = f.Message
	}
	if got["read_buffer_size"] != "must be greater than or equal to 512" {
		t.Errorf("unexpected read_buffer_size message: %q", got["read_buffer_size"])
	}
	if got["endpoint"] != "must be a host:port pair" {
		t.Errorf("unexpected endpoint message: %q", got["endpoint"])
	}
	if got["label"] != "must be at most 4 characters" {
		t.Errorf("unexpected label message: %q", got["label"])
	}
}

func TestStructValidateNonStruct(t *testing.T) {
	err := Validate(42)
	if err == nil {
		t.Fatal("expected error for non-struct input")
	}
	if !errors.IsAppError(err) {
		t.Errorf("expected AppError, got %T", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Hostname":       "hostname",
		"ReadBufferSize": "read_buffer_size",
		"x":              "x",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestValidatorRequired(t *testing.T) {
	v := New().Required("name", "  ")
	if !v.HasErrors() {
		t.Fatal("expected error for blank value")
	}
	if v.Errors()[0].Message != "is required" {
		t.Errorf("expected 'is required', got %q", v.Errors()[0].Message)
	}
	if New().Required("name", "x").HasErrors() {
		t.Error("expected no error for non-empty value")
	}
}

func TestValidatorMinAndRange(t *testing.T) {
	v := New().
		Min("idle", -1, 0).
		Range("buffer", 10, 512, 1024).
		Range("ok", 600, 512, 1024)
	if len(v.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %v", v.Errors())
	}
	if v.Errors()[0].Message != "must be at least 0" {
		t.Errorf("unexpected message: %q", v.Errors()[0].Message)
	}
	if v.Errors()[1].Message != "must be between 512 and 1024" {
		t.Errorf("unexpected message: %q", v.Errors()[1].Message)
	}
}

func TestValidatorNonNegativeDuration(t *testing.T) {
	if !New().NonNegativeDuration("timeout", -time.Second).HasErrors() {
		t.Error("expected error for negative duration")
	}
	if New().NonNegativeDuration("timeout", 0).HasErrors() {
		t.Error("expected zero duration to be accepted")
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"json", "console"}
	if New().OneOf("format", "", allowed).HasErrors() {
		t.Error("expected empty value to be skipped")
	}
	if New().OneOf("format", "json", allowed).HasErrors() {
		t.Error("expected allowed value to pass")
	}
	v := New().OneOf("format", "xml", allowed)
	if !v.HasErrors() || v.Errors()[0].Message != "must be one of: json, console" {
		t.Errorf("unexpected errors: %v", v.Errors())
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New().Custom(false, "tls", "cert and key must be set together")
	if !v.HasErrors() {
		t.Fatal("expected error")
	}
}

func TestValidatorValidateAndErr(t *testing.T) {
	if New().Validate() != nil {
		t.Error("expected nil AppError for empty validator")
	}
	if New().Err() != nil {
		t.Error("expected nil error for empty validator")
	}

	v := New().Required("name", "").Min("size", 0, 1)
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected AppError")
	}
	if appErr.Message != "name: is required; size: must be at least 1" {
		t.Errorf("unexpected message: %q", appErr.Message)
	}
	if err := v.Err(); err == nil {
		t.Error("expected non-nil error")
	}
	if fields, ok := appErr.Details["fields"].([]FieldError); !ok || len(fields) != 2 {
		t.Errorf("expected 2 field errors in details, got %v", appErr.Details["fields"])
	}
}
