// Package ids generates entity and patient identifiers.
package ids

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Generator mints identifiers for new records.
type Generator interface {
	// NewID returns `{prefix}-{unique}`.
	NewID(prefix string) string
	// PatientID returns `PAT-` followed by six uppercase base-36 characters.
	PatientID() string
}

// UUID is the production generator backed by random UUIDs.
type UUID struct{}

// NewID implements Generator.
func (UUID) NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// PatientID implements Generator.
func (UUID) PatientID() string {
	u := uuid.New()
	return formatPatientID(binary.BigEndian.Uint64(u[:8]))
}

const patientIDWidth = 6

func formatPatientID(n uint64) string {
	s := strings.ToUpper(strconv.FormatUint(n, 36))
	if len(s) < patientIDWidth {
		s = strings.Repeat("0", patientIDWidth-len(s)) + s
	}
	return "PAT-" + s[len(s)-patientIDWidth:]
}

var patientIDPattern = regexp.MustCompile(`^PAT-[0-9A-Z]{6}$`)

// ValidPatientID reports whether id has the PAT-XXXXXX shape.
func ValidPatientID(id string) bool { return patientIDPattern.MatchString(id) }

// Sequence yields predictable identifiers; intended for tests.
type Sequence struct {
	mu sync.Mutex
	n  uint64
}

// NewID implements Generator.
func (s *Sequence) NewID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, s.next())
}

// PatientID implements Generator.
func (s *Sequence) PatientID() string { return formatPatientID(s.next()) }

func (s *Sequence) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases name, collapses every run of other characters into a dash
// and trims the result to 32 characters without leading or trailing dashes.
func Slug(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(name), "-")
	if len(s) > 32 {
		s = s[:32]
	}
	return strings.Trim(s, "-")
}
