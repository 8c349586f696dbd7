package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	goerrors "github.com/goliatone/go-errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"sigs.k8s.io/yaml"
)

// SchemaValidator enforces the closed manifest contract. The schema is
// compiled once at construction; every Validate call works on its own
// violation list, so one bad manifest never taints the next call.
//
// Violations are collected exhaustively rather than failing on the first:
// the returned error carries one FieldError per violation, addressed by
// JSON pointer, sorted for stable output.
type SchemaValidator struct {
	schema  *jsonschema.Schema
	printer *message.Printer
}

// NewSchemaValidator compiles the manifest schema.
func NewSchemaValidator() (*SchemaValidator, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(manifestSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("core: decode manifest schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(manifestSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("core: register manifest schema: %w", err)
	}
	schema, err := compiler.Compile(manifestSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("core: compile manifest schema: %w", err)
	}
	return &SchemaValidator{
		schema:  schema,
		printer: message.NewPrinter(language.English),
	}, nil
}

// Validate checks an already-decoded manifest against the schema contract.
func (v *SchemaValidator) Validate(manifest PluginManifest) error {
	if v == nil || v.schema == nil {
		return fmt.Errorf("core: manifest validator is not initialized")
	}
	raw, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("core: encode manifest: %w", err)
	}
	_, err = v.validateJSON(raw)
	return err
}

// ParseAndValidate decodes a raw manifest document, JSON or YAML, and
// validates it. The manifest is returned only when it is fully valid.
func (v *SchemaValidator) ParseAndValidate(raw []byte) (PluginManifest, error) {
	if v == nil || v.schema == nil {
		return PluginManifest{}, fmt.Errorf("core: manifest validator is not initialized")
	}
	jsonBytes, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return PluginManifest{}, manifestInvalidError(goerrors.FieldError{
			Field:   "/",
			Message: fmt.Sprintf("manifest is not valid YAML or JSON: %v", err),
		})
	}
	return v.validateJSON(jsonBytes)
}

func (v *SchemaValidator) validateJSON(jsonBytes []byte) (PluginManifest, error) {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonBytes))
	if err != nil {
		return PluginManifest{}, manifestInvalidError(goerrors.FieldError{
			Field:   "/",
			Message: fmt.Sprintf("manifest is not valid JSON: %v", err),
		})
	}

	var violations []goerrors.FieldError
	if err := v.schema.Validate(instance); err != nil {
		var validationErr *jsonschema.ValidationError
		if !errors.As(err, &validationErr) {
			return PluginManifest{}, fmt.Errorf("core: validate manifest: %w", err)
		}
		violations = v.collectViolations(validationErr, violations)
	}

	var manifest PluginManifest
	if decodeErr := json.Unmarshal(jsonBytes, &manifest); decodeErr != nil {
		if len(violations) == 0 {
			violations = append(violations, goerrors.FieldError{
				Field:   "/",
				Message: fmt.Sprintf("manifest does not decode: %v", decodeErr),
			})
		}
		return PluginManifest{}, manifestInvalidError(violations...)
	}

	violations = appendVersionViolations(violations, manifest)
	if len(violations) > 0 {
		return PluginManifest{}, manifestInvalidError(violations...)
	}
	return manifest, nil
}

// collectViolations flattens the validation tree into one FieldError per
// violation. Branch nodes only aggregate their causes; leaves carry the
// actual failed assertion. A failed required assertion is expanded into one
// violation per missing property so every gap is reported individually.
func (v *SchemaValidator) collectViolations(err *jsonschema.ValidationError, out []goerrors.FieldError) []goerrors.FieldError {
	if err == nil {
		return out
	}
	if len(err.Causes) == 0 {
		return append(out, v.leafViolations(err)...)
	}
	for _, cause := range err.Causes {
		out = v.collectViolations(cause, out)
	}
	return out
}

func (v *SchemaValidator) leafViolations(err *jsonschema.ValidationError) []goerrors.FieldError {
	pointer := fieldPointer(err.InstanceLocation)
	switch errKind := err.ErrorKind.(type) {
	case *kind.Required:
		out := make([]goerrors.FieldError, 0, len(errKind.Missing))
		for _, missing := range errKind.Missing {
			out = append(out, goerrors.FieldError{
				Field:   childPointer(pointer, missing),
				Message: "required property is missing",
			})
		}
		return out
	case *kind.AdditionalProperties:
		out := make([]goerrors.FieldError, 0, len(errKind.Properties))
		for _, property := range errKind.Properties {
			out = append(out, goerrors.FieldError{
				Field:   childPointer(pointer, property),
				Message: "unknown key is not allowed",
			})
		}
		return out
	case *kind.FalseSchema:
		return []goerrors.FieldError{{
			Field:   pointer,
			Message: "unknown key is not allowed",
		}}
	default:
		return []goerrors.FieldError{{
			Field:   pointer,
			Message: err.ErrorKind.LocalizedString(v.printer),
		}}
	}
}

func appendVersionViolations(out []goerrors.FieldError, manifest PluginManifest) []goerrors.FieldError {
	if manifest.Version == "" {
		return out
	}
	if _, err := semver.StrictNewVersion(manifest.Version); err != nil {
		out = append(out, goerrors.FieldError{
			Field:   "/version",
			Message: fmt.Sprintf("%q is not a semantic version", manifest.Version),
		})
	}
	return out
}

func manifestInvalidError(violations ...goerrors.FieldError) error {
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Field != violations[j].Field {
			return violations[i].Field < violations[j].Field
		}
		return violations[i].Message < violations[j].Message
	})
	return goerrors.NewValidation("core: plugin manifest failed validation", violations...).
		WithCode(http.StatusBadRequest).
		WithTextCode(PlatformErrorManifestInvalid)
}

// fieldPointer renders an instance location as a JSON pointer, "/" for the
// document root.
func fieldPointer(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, segment := range segments {
		b.WriteString("/")
		b.WriteString(escapePointerSegment(segment))
	}
	return b.String()
}

func childPointer(parent, segment string) string {
	if parent == "/" {
		return "/" + escapePointerSegment(segment)
	}
	return parent + "/" + escapePointerSegment(segment)
}

func escapePointerSegment(segment string) string {
	segment = strings.ReplaceAll(segment, "~", "~0")
	return strings.ReplaceAll(segment, "/", "~1")
}

var _ ManifestValidator = (*SchemaValidator)(nil)
