/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package client talks to the evalrun results collector.
//
// It registers experiment runs, uploads batches of dataset entries and
// evaluation results, and runs remote evaluators. Every request carries the
// API key from a CredentialStore; a 401 on experiment init invalidates the
// stored credentials.
package client
