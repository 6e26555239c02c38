// Package llm holds the provider-neutral parts of job extraction: prompts,
// the function schema, model tiers and response parsing.
package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cuongbtq/jobboard/internal/domain"
)

const (
	// ClassifierPromptLimit caps how much text the relevance check sees
	ClassifierPromptLimit = 2000

	// FunctionName is the tool the extraction model is forced to call
	FunctionName = "extract_job_listing"

	FunctionDescription = "Extract structured job listing information from text"
)

var (
	// ErrServiceUnavailable marks transport-level failures reaching the provider
	ErrServiceUnavailable = errors.New("llm service unavailable")

	ErrNoPayload        = errors.New("model returned no structured payload")
	ErrMalformedPayload = errors.New("model returned a malformed payload")
	ErrMissingTitle     = errors.New("could not extract job title")
	ErrMissingCompany   = errors.New("could not extract company name")
)

const ClassifierSystemPrompt = "You are a classifier for employment-related documents. Be inclusive and lenient in your classification."

const classifierUserPrompt = `Is the following text related to a job, employment, hiring, or any kind of work opportunity? ` +
	`Consider job listings, job offers, employment contracts, hiring plans, job descriptions, or any document that describes a position someone might fill. ` +
	`Be lenient - if it's even remotely related to employment or hiring, answer YES. Reply with exactly "YES" or "NO".

%s`

// ExtractionSystemPrompt sets the location fallback; the orchestrator re-applies it anyway
const ExtractionSystemPrompt = `You extract job posting details into JSON. Be thorough and look for all required fields, especially job location. ` +
	`If location is not explicitly stated, infer it from the context or use "Remote" as default.`

const extractionUserPrompt = `Extract job information from this PDF text into a structured format. ` +
	`Make sure to identify or infer the job location - this is a REQUIRED field. ` +
	`If location is not explicitly stated, look for clues like office addresses, city names, or phrases like "remote work" or "work from home". ` +
	`If truly no location information can be found, use "Remote" as the default.

%s`

// ClassifierPrompt builds the relevance question from the first
// ClassifierPromptLimit characters of text.
func ClassifierPrompt(text string) string {
	return fmt.Sprintf(classifierUserPrompt, Truncate(text, ClassifierPromptLimit))
}

// ExtractionPrompt wraps the full document text
func ExtractionPrompt(text string) string {
	return fmt.Sprintf(extractionUserPrompt, text)
}

// Truncate returns at most n characters of s without splitting a rune
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Verdict is the relevance classifier's answer
type Verdict bool

const (
	VerdictYes Verdict = true
	VerdictNo  Verdict = false
)

func (v Verdict) String() string {
	if v {
		return "YES"
	}
	return "NO"
}

// ParseVerdict is case-insensitive; anything other than YES is NO
func ParseVerdict(reply string) Verdict {
	return Verdict(strings.EqualFold(strings.TrimSpace(reply), "YES"))
}

// Field describes one property of the extraction function
type Field struct {
	Name        string
	Description string
	List        bool
	Required    bool
}

// JobFields is the extraction schema shared by all providers
var JobFields = []Field{
	{Name: "title", Description: "The job title", Required: true},
	{Name: "company", Description: "The company name", Required: true},
	{Name: "location", Description: `The job location. Use "Remote" if not specified`},
	{Name: "salary", Description: "The salary range or compensation, if mentioned"},
	{Name: "description", Description: "A summary of the role and its responsibilities"},
	{Name: "requirements", Description: "The qualifications and requirements for the role", List: true},
	{Name: "benefits", Description: "The benefits and perks offered", List: true},
}

// RequiredFields lists the schema-required property names
func RequiredFields() []string {
	var out []string
	for _, f := range JobFields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// ModelSet is a two-bucket tier: hints containing "gpt-4" or naming the
// quality model exactly pick Quality, everything else picks Fast.
type ModelSet struct {
	Fast       string
	Quality    string
	Classifier string
}

// Resolve maps a caller hint to a concrete model identifier. Any hint
// containing "gpt-4", or naming the quality model exactly, selects Quality.
func (m ModelSet) Resolve(hint string) string {
	if strings.Contains(hint, "gpt-4") || (hint != "" && hint == m.Quality) {
		return m.Quality
	}
	return m.Fast
}

type arguments struct {
	Title        *string                 `json:"title"`
	Company      *string                 `json:"company"`
	Location     *string                 `json:"location"`
	Salary       *string                 `json:"salary"`
	Description  *string                 `json:"description"`
	Requirements domain.StringOrSequence `json:"requirements"`
	Benefits     domain.StringOrSequence `json:"benefits"`
}

// ParseArguments decodes a function-call payload into an ExtractionResult.
// Requirements and benefits may come back as a string or an array.
func ParseArguments(raw string) (*domain.ExtractionResult, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNoPayload
	}

	var args arguments
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	result := &domain.ExtractionResult{
		Title:        deref(args.Title),
		Company:      deref(args.Company),
		Location:     deref(args.Location),
		Salary:       deref(args.Salary),
		Description:  deref(args.Description),
		Requirements: args.Requirements.Slice(),
		Benefits:     args.Benefits.Slice(),
	}

	if result.Title == "" {
		return nil, ErrMissingTitle
	}
	if result.Company == "" {
		return nil, ErrMissingCompany
	}
	return result, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
