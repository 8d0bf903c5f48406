/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"chainguard.dev/evalrun/evaluators/llmjudge"
	"gopkg.in/yaml.v3"
)

// experimentFile describes one run of the CLI.
type experimentFile struct {
	Slug    string `yaml:"slug"`
	Name    string `yaml:"name"`
	Dataset string `yaml:"dataset"`
	Threads int    `yaml:"threads"`
	Limit   int    `yaml:"limit"`

	// Threshold fails the run when any metric's mean score is below it.
	// Metrics without scores are held to it by pass rate.
	Threshold *float64 `yaml:"threshold"`

	Target     *targetSpec     `yaml:"target"`
	Evaluators []evaluatorSpec `yaml:"evaluators"`
}

type targetSpec struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	Metadata map[string]any `yaml:"metadata"`
	// Output is the row field logged as the target's response.
	Output string `yaml:"output"`
}

type evaluatorSpec struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Provider  string         `yaml:"provider"`
	Model     string         `yaml:"model"`
	Settings  map[string]any `yaml:"settings"`
	Guardrail bool           `yaml:"guardrail"`
}

// metric is the name results of this evaluator are logged under.
func (s evaluatorSpec) metric() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

func (s evaluatorSpec) isJudge() bool {
	return s.Provider != ""
}

// registryID is the id the evaluator is looked up by. Judges get one id per
// provider and model so that several can share a run.
func (s evaluatorSpec) registryID() string {
	if !s.isJudge() {
		return s.ID
	}
	model := s.Model
	if model == "" {
		model = "default"
	}
	return fmt.Sprintf("%s/%s/%s", s.ID, s.Provider, model)
}

func loadExperimentFile(path string) (*experimentFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening experiment file: %w", err)
	}
	defer f.Close()

	var ef experimentFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&ef); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if ef.Dataset != "" && !filepath.IsAbs(ef.Dataset) {
		ef.Dataset = filepath.Join(filepath.Dir(path), ef.Dataset)
	}
	for i := range ef.Evaluators {
		if ef.Evaluators[i].isJudge() && ef.Evaluators[i].ID == "" {
			ef.Evaluators[i].ID = llmjudge.ID
		}
	}
	if ef.Target != nil && ef.Target.Output == "" {
		ef.Target.Output = "output"
	}
	if err := ef.validate(); err != nil {
		return nil, fmt.Errorf("invalid experiment file %s: %w", path, err)
	}
	return &ef, nil
}

func (ef *experimentFile) validate() error {
	var errs []error
	if ef.Slug == "" {
		errs = append(errs, errors.New("slug is required"))
	}
	if ef.Dataset == "" {
		errs = append(errs, errors.New("dataset is required"))
	}
	if ef.Threads < 0 {
		errs = append(errs, fmt.Errorf("threads must not be negative, got %d", ef.Threads))
	}
	if ef.Limit < 0 {
		errs = append(errs, fmt.Errorf("limit must not be negative, got %d", ef.Limit))
	}
	if ef.Threshold != nil && (*ef.Threshold < 0 || *ef.Threshold > 1) {
		errs = append(errs, fmt.Errorf("threshold %v outside [0, 1]", *ef.Threshold))
	}
	if ef.Target != nil && ef.Target.Name == "" {
		errs = append(errs, errors.New("target.name is required"))
	}
	if len(ef.Evaluators) == 0 {
		errs = append(errs, errors.New("at least one evaluator is required"))
	}
	metrics := make(map[string]bool, len(ef.Evaluators))
	for i, s := range ef.Evaluators {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("evaluators[%d]: id is required", i))
			continue
		}
		if metrics[s.metric()] {
			errs = append(errs, fmt.Errorf("evaluators[%d]: duplicate metric %q", i, s.metric()))
		}
		metrics[s.metric()] = true
	}
	return errors.Join(errs...)
}
