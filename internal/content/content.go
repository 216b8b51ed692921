// Package content holds the dashboard's static material: documentation
// guides, troubleshooting, changelog, navigation, the inference endpoint
// catalogue and the reference datasets behind the fraud, segmentation,
// model insights and feature engineering views. Everything is embedded
// YAML decoded once at first use.
package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var files embed.FS

// Library is the decoded static content.
type Library struct {
	Hub             Hub             `json:"hub" validate:"required"`
	Navigation      Navigation      `json:"navigation" validate:"required"`
	Troubleshooting Troubleshooting `json:"troubleshooting"`
	Fraud           FraudMonitoring `json:"fraud"`
	Segmentation    Segmentation    `json:"segmentation"`
	Models          ModelInsights   `json:"models"`
	Features        FeatureCatalog  `json:"features"`
	Endpoints       []Endpoint      `json:"endpoints" validate:"required,dive"`
	Changelog       []Release       `json:"changelog" validate:"dive"`
}

var loadDefault = sync.OnceValues(func() (*Library, error) {
	return Load()
})

// Default returns the embedded library, decoding it on first call.
func Default() (*Library, error) {
	return loadDefault()
}

// Load decodes and validates the embedded YAML files.
func Load() (*Library, error) {
	var lib Library
	targets := []struct {
		out  any
		name string
	}{
		{&lib.Hub, "docs.yaml"},
		{&lib.Navigation, "navigation.yaml"},
		{&lib.Troubleshooting, "troubleshooting.yaml"},
		{&lib.Fraud, "fraud.yaml"},
		{&lib.Segmentation, "segments.yaml"},
		{&lib.Models, "models.yaml"},
		{&lib.Features, "features.yaml"},
		{&lib.Endpoints, "endpoints.yaml"},
		{&lib.Changelog, "changelog.yaml"},
	}

	for _, t := range targets {
		data, err := files.ReadFile("data/" + t.name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", t.name, err)
		}
		if err := decodeStrict(data, t.out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", t.name, err)
		}
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&lib); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	if err := lib.checkLinks(); err != nil {
		return nil, err
	}

	return &lib, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// checkLinks verifies slugs are unique and every issue links to a real page.
func (l *Library) checkLinks() error {
	seen := make(map[string]bool, len(l.Hub.Pages))
	for _, p := range l.Hub.Pages {
		if seen[p.Slug] {
			return fmt.Errorf("%w: duplicate page slug %q", common.ErrInvalidConfig, p.Slug)
		}
		seen[p.Slug] = true
	}
	for _, issue := range l.Troubleshooting.Issues {
		for _, slug := range issue.Related {
			if !seen[slug] {
				return fmt.Errorf("%w: issue %d links to unknown page %q", common.ErrInvalidConfig, issue.ID, slug)
			}
		}
	}
	return nil
}

// Page returns the guide with slug.
func (l *Library) Page(slug string) (Page, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, p := range l.Hub.Pages {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Page{}, fmt.Errorf("page %q: %w", slug, common.ErrNotFound)
}

// Slugs lists page slugs in hub order.
func (l *Library) Slugs() []string {
	out := make([]string, 0, len(l.Hub.Pages))
	for _, p := range l.Hub.Pages {
		out = append(out, p.Slug)
	}
	return out
}

// Issues returns troubleshooting entries in category whose title, problem,
// symptoms or solution steps match pattern. Empty arguments match all.
func (l *Library) Issues(category, pattern string) ([]Issue, error) {
	var out []Issue
	for _, issue := range l.Troubleshooting.Issues {
		if category != "" && category != "all" && issue.Category != category {
			continue
		}
		texts := []string{issue.Title, issue.Problem}
		texts = append(texts, issue.Symptoms...)
		for _, s := range issue.Solutions {
			texts = append(texts, s.Step, s.Description)
		}
		ok, err := matchAny(pattern, texts)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, issue)
		}
	}
	return out, nil
}

// EndpointGroups returns endpoint group names in catalogue order.
func (l *Library) EndpointGroups() []string {
	var groups []string
	for _, e := range l.Endpoints {
		if !slices.Contains(groups, e.Group) {
			groups = append(groups, e.Group)
		}
	}
	return groups
}

func matchAny(pattern string, texts []string) (bool, error) {
	if pattern == "" {
		return true, nil
	}
	for _, text := range texts {
		ok, err := common.MatchRegex(pattern, text)
		if err != nil {
			return false, common.NewUserError(fmt.Sprintf("invalid search pattern %q", pattern), fmt.Errorf("%w: %w", common.ErrBadRequest, err))
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
