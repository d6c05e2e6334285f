package services

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"teatrade-scraper/models"
)

//go:embed report.schema.json
var reportSchemaJSON []byte

const reportSchemaURL = "report.schema.json"

var (
	reportSchemaOnce sync.Once
	reportSchema     *jsonschema.Schema
	reportSchemaErr  error
)

func compiledReportSchema() (*jsonschema.Schema, error) {
	reportSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(reportSchemaURL, bytes.NewReader(reportSchemaJSON)); err != nil {
			reportSchemaErr = fmt.Errorf("add report schema: %w", err)
			return
		}
		reportSchema, reportSchemaErr = compiler.Compile(reportSchemaURL)
	})
	return reportSchema, reportSchemaErr
}

// ValidateReport checks a report against the consolidated report contract. The returned
// slice lists every violation; it is empty for a valid report.
func ValidateReport(report *models.ConsolidatedReport) ([]string, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return ValidateReportJSON(body)
}

// ValidateReportJSON validates an encoded report document.
func ValidateReportJSON(body []byte) ([]string, error) {
	schema, err := compiledReportSchema()
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("report is not valid JSON: %w", err)
	}

	err = schema.Validate(v)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validate report: %w", err)
	}

	var violations []string
	collectViolations(ve, &violations)
	return violations, nil
}

func collectViolations(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, c := range ve.Causes {
		collectViolations(c, out)
	}
}
