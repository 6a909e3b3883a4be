// Package scope validates what a run is asked to cover: the department of a
// municipal run and the base name of the result file.
package scope

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidDepartment is returned for codes outside the department list.
	ErrInvalidDepartment = errors.New("the department number is incorrect")
	// ErrInvalidFileName is returned for names with characters other than
	// letters, digits, underscores and hyphens.
	ErrInvalidFileName = errors.New("incorrect file name")
)

var fileName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// parisCode is both a department and a sectorized city.
const parisCode = "75"

// parisEntity is the city page scraped in place of the Paris department index.
const parisEntity = "075/075056.html"

var departments = buildDepartments()

func buildDepartments() []string {
	var out []string
	for i := 1; i <= 19; i++ {
		out = append(out, strconv.Itoa(i))
	}
	out = append(out, "2A", "2B")
	for i := 21; i <= 95; i++ {
		out = append(out, strconv.Itoa(i))
	}
	for i := 971; i <= 976; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return append(out, "988")
}

// Departments lists every accepted department code in display order.
func Departments() []string {
	return append([]string(nil), departments...)
}

// Department is a validated department.
type Department struct {
	// Code is the code as listed by Departments, e.g. "69" or "2A".
	Code string
	// Path is the three character directory of the department on the
	// results site, e.g. "069" or "02A".
	Path string
}

// ParseDepartment validates raw. Leading zeros and letter case are ignored,
// so "069", "69" and "2a" are accepted.
func ParseDepartment(raw string) (Department, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(code); err == nil {
		code = strconv.Itoa(n)
	} else {
		code = strings.TrimLeft(code, "0")
	}
	for _, d := range departments {
		if d != code {
			continue
		}
		return Department{Code: code, Path: path(code)}, nil
	}
	return Department{}, fmt.Errorf("%q: %w", raw, ErrInvalidDepartment)
}

func path(code string) string {
	if n, err := strconv.Atoi(code); err == nil {
		return fmt.Sprintf("%03d", n)
	}
	return "0" + code
}

// IsParis reports whether the department is scraped from the city page.
func (d Department) IsParis() bool {
	return d.Code == parisCode
}

// RootURL returns the page a municipal run of d starts from: the department
// index, or the Paris city page.
func (d Department) RootURL(baseURL string) (string, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref := d.Path + "/index.html"
	if d.IsParis() {
		ref = parisEntity
	}
	return base.JoinPath(ref).String(), nil
}

// ValidateFileName checks the base name of the result file.
func ValidateFileName(name string) error {
	if !fileName.MatchString(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidFileName)
	}
	return nil
}
