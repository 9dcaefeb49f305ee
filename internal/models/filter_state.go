package models

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names of a FilterState.
const (
	ParamQuery         = "q"
	ParamRegexp        = "regexp"
	ParamCaseSensitive = "case"
	ParamExclude       = "exclude"
	ParamSort          = "sort"
	ParamReverse       = "reverse"
	ParamFolder        = "folder"
)

// FilterState is the filter/sort state of one listing view.
type FilterState struct {
	NameQuery     string  `json:"nameQuery"`
	ByRegexp      bool    `json:"byRegexp"`
	CaseSensitive bool    `json:"caseSensitive"`
	ExcludeSuffix *string `json:"excludeSuffix"`
	SortBy        string  `json:"sortBy"`
	Reverse       bool    `json:"reverse"`
	Folder        string  `json:"folder"`
}

// ParseFilterState reads a FilterState from query parameters. Missing
// parameters fall back to def. A trailing delimiter on the folder is trimmed.
func ParseFilterState(q url.Values, def FilterState) FilterState {
	s := def
	if q.Has(ParamQuery) {
		s.NameQuery = q.Get(ParamQuery)
	}
	if q.Has(ParamRegexp) {
		s.ByRegexp = parseBool(q.Get(ParamRegexp))
	}
	if q.Has(ParamCaseSensitive) {
		s.CaseSensitive = parseBool(q.Get(ParamCaseSensitive))
	}
	if q.Has(ParamExclude) {
		if v := q.Get(ParamExclude); v != "" {
			s.ExcludeSuffix = &v
		} else {
			s.ExcludeSuffix = nil
		}
	}
	if q.Has(ParamSort) {
		s.SortBy = q.Get(ParamSort)
	}
	if q.Has(ParamReverse) {
		s.Reverse = parseBool(q.Get(ParamReverse))
	}
	if q.Has(ParamFolder) {
		s.Folder = q.Get(ParamFolder)
	}
	return s.Normalize()
}

// Normalize trims trailing delimiters from the folder so "logs." and "logs"
// name the same folder.
func (s FilterState) Normalize() FilterState {
	s.Folder = strings.TrimRight(s.Folder, ".")
	return s
}

// Values is the inverse of ParseFilterState. Zero fields are omitted.
func (s FilterState) Values() url.Values {
	v := url.Values{}
	if s.NameQuery != "" {
		v.Set(ParamQuery, s.NameQuery)
	}
	if s.ByRegexp {
		v.Set(ParamRegexp, "true")
	}
	if s.CaseSensitive {
		v.Set(ParamCaseSensitive, "true")
	}
	if s.ExcludeSuffix != nil && *s.ExcludeSuffix != "" {
		v.Set(ParamExclude, *s.ExcludeSuffix)
	}
	if s.SortBy != "" {
		v.Set(ParamSort, s.SortBy)
	}
	if s.Reverse {
		v.Set(ParamReverse, "true")
	}
	if s.Folder != "" {
		v.Set(ParamFolder, s.Folder)
	}
	return v
}

// Excluding reports whether a suffix exclusion is active.
func (s FilterState) Excluding() (string, bool) {
	if s.ExcludeSuffix == nil || *s.ExcludeSuffix == "" {
		return "", false
	}
	return *s.ExcludeSuffix, true
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "", "on":
		// Bare "?reverse" and checkbox form values
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
